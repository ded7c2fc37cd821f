// Package config loads the signer configuration from YAML.
package config

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/signer"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"gopkg.in/yaml.v3"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"

	RandomnessSystem        = "system"
	RandomnessDeterministic = "deterministic"

	StoreMemory = "memory"
	StorePebble = "pebble"
)

// Config is the on-disk signer configuration.
type Config struct {
	Network      string `yaml:"network"`
	HDPath       string `yaml:"hd_path"`
	Mnemonic     string `yaml:"mnemonic"`
	MnemonicFile string `yaml:"mnemonic_file"`
	Passphrase   string `yaml:"passphrase"`

	Randomness RandomnessConfig `yaml:"randomness"`
	Masp       MaspConfig       `yaml:"masp"`
	Store      StoreConfig      `yaml:"store"`
	Address    AddressConfig    `yaml:"address"`
	Log        LogConfig        `yaml:"log"`
}

// RandomnessConfig selects the randomness source for MASP items.
type RandomnessConfig struct {
	Mode string `yaml:"mode"`
	// Seed is 32 hex bytes. Used only in deterministic mode.
	Seed string `yaml:"seed"`
}

// MaspConfig holds shielded signing options.
type MaspConfig struct {
	// Test-only, do not enable on a device
	SkipRkCheck bool `yaml:"skip_rk_check"`
}

// StoreConfig selects where items and spend signatures are kept.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// AddressConfig overrides the bech32m human-readable parts.
type AddressConfig struct {
	HRP       string `yaml:"hrp"`
	PubKeyHRP string `yaml:"pubkey_hrp"`
	MaspHRP   string `yaml:"masp_hrp"`
}

// Default returns a testnet configuration backed by memory and the system
// randomness source. It has no mnemonic.
func Default() *Config {
	path := crypto.DefaultHDPath()
	path[1] = crypto.CoinTypeTestnet | crypto.Hardened
	hrp := signer.DefaultHRP()
	return &Config{
		Network:    NetworkTestnet,
		HDPath:     path.String(),
		Randomness: RandomnessConfig{Mode: RandomnessSystem},
		Store:      StoreConfig{Backend: StoreMemory},
		Address: AddressConfig{
			HRP:       hrp.Address,
			PubKeyHRP: hrp.PubKey,
			MaspHRP:   hrp.MaspAddress,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and their combinations.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(txerr.ErrInvalidSettings, format, args...)
	}

	path, err := c.Path()
	if err != nil {
		return err
	}
	switch c.Network {
	case NetworkMainnet:
		if path.IsTestnet() {
			return invalid("mainnet with testnet path %s", path)
		}
	case NetworkTestnet:
	default:
		return invalid("network %q", c.Network)
	}

	if c.Mnemonic != "" && c.MnemonicFile != "" {
		return invalid("both mnemonic and mnemonic_file set")
	}

	switch c.Randomness.Mode {
	case RandomnessSystem:
	case RandomnessDeterministic:
		if _, err := c.Seed(); err != nil {
			return err
		}
	default:
		return invalid("randomness mode %q", c.Randomness.Mode)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePebble:
		if c.Store.Path == "" {
			return invalid("pebble store without path")
		}
	default:
		return invalid("store backend %q", c.Store.Backend)
	}

	if c.Address.HRP == "" || c.Address.PubKeyHRP == "" || c.Address.MaspHRP == "" {
		return invalid("empty address prefix")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Path parses the configured derivation path.
func (c *Config) Path() (crypto.HDPath, error) {
	return crypto.ParseHDPath(c.HDPath)
}

// Seed decodes the deterministic randomness seed.
func (c *Config) Seed() ([32]byte, error) {
	var seed [32]byte
	b, err := hex.DecodeString(c.Randomness.Seed)
	if err != nil || len(b) != len(seed) {
		return seed, errors.Wrap(txerr.ErrInvalidSettings, "randomness seed must be 32 hex bytes")
	}
	copy(seed[:], b)
	return seed, nil
}

// LoadMnemonic returns the mnemonic, reading mnemonic_file when set.
func (c *Config) LoadMnemonic() (string, error) {
	if c.MnemonicFile != "" {
		b, err := os.ReadFile(c.MnemonicFile)
		if err != nil {
			return "", errors.Wrap(err, "read mnemonic")
		}
		return strings.TrimSpace(string(b)), nil
	}
	if c.Mnemonic == "" {
		return "", errors.Wrap(txerr.ErrNoData, "no mnemonic configured")
	}
	return c.Mnemonic, nil
}

// HRP returns the configured text encoding prefixes.
func (c *Config) HRP() signer.HRP {
	return signer.HRP{
		Address:     c.Address.HRP,
		PubKey:      c.Address.PubKeyHRP,
		MaspAddress: c.Address.MaspHRP,
	}
}
