// namada-signer CLI - software rendition of the Namada device signer
//
// Example usage:
//
//	# Show the device ed25519 key and implicit address
//	namada-signer address --config signer.yaml
//
//	# Sign a parsed transaction document with a host-chosen salt
//	namada-signer sign --config signer.yaml --tx transfer.json --salt <hex>
//
//	# Shielded flow (requires the pebble store backend)
//	namada-signer randomness --kind spend
//	namada-signer sign-masp --tx shielded.json
//	namada-signer spend-signature
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suffix-labs/namada-signer/pkg/api"
	"github.com/suffix-labs/namada-signer/pkg/config"
	"go.uber.org/zap"
)

var (
	configPath   string
	mnemonicFile string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "namada-signer",
	Short:         "Namada transaction and MASP signer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration (default: built-in testnet defaults)")
	rootCmd.PersistentFlags().StringVar(&mnemonicFile, "mnemonic-file", "", "read the mnemonic from this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(addressCmd, maspAddressCmd, signCmd, randomnessCmd, signMaspCmd, spendSignatureCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if mnemonicFile != "" {
		cfg.Mnemonic = ""
		cfg.MnemonicFile = mnemonicFile
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openDevice loads the configuration and opens a device. The returned
// function closes both the device and the logger.
func openDevice() (*api.Device, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.CreateLogger()
	if err != nil {
		return nil, nil, err
	}
	d, err := api.Open(cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return d, func() {
		if err := d.Close(); err != nil {
			logger.Warn("close device", zap.Error(err))
		}
		logger.Sync()
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
