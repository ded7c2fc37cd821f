package main

import (
	"encoding/hex"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

var (
	itemKind  string
	itemCount int
)

func parseItemKind(s string) (store.ItemKind, error) {
	for _, k := range []store.ItemKind{store.KindSpend, store.KindOutput, store.KindConvert} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(txerr.ErrInvalidSettings, "item kind %q", s)
}

var randomnessCmd = &cobra.Command{
	Use:   "randomness",
	Short: "Generate and record randomness for shielded items",
	Long: `Generate rcv||alpha (spend), rcv||rcm (output) or rcv (convert) for new
items. The device keeps a copy for sign-masp, so a persistent store backend
is needed across invocations.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseItemKind(itemKind)
		if err != nil {
			return err
		}
		size, err := masp.RandomnessSize(kind)
		if err != nil {
			return err
		}
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		buf := make([]byte, size)
		for i := 0; i < itemCount; i++ {
			n, err := d.ComputeRandomness(kind, buf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf[:n]))
		}
		return nil
	},
}

var spendSignatureCmd = &cobra.Command{
	Use:   "spend-signature",
	Short: "Print every queued spend signature",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		sig := make([]byte, store.SignatureSize)
		for {
			more, err := d.HasMoreSpendSignatures()
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			n, err := d.ExtractSpendSignature(sig)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sig[:n]))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version := "(devel)"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
		fmt.Fprintf(cmd.OutOrStdout(), "namada-signer %s\n", version)
	},
}

func init() {
	randomnessCmd.Flags().StringVarP(&itemKind, "kind", "k", "spend", "item kind: spend|output|convert")
	randomnessCmd.Flags().IntVarP(&itemCount, "count", "n", 1, "number of items")
}
