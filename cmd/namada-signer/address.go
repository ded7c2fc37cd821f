package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

const addressBufferSize = 256

var addressKeyKind string

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the device public key and implicit address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKeyKind(addressKeyKind)
		if err != nil {
			return err
		}
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		buf := make([]byte, addressBufferSize)
		n, err := d.FillAddress(kind, buf)
		if err != nil {
			return err
		}
		fields, err := splitFields(buf[:n], int(buf[0]))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Public key: %s\n", hex.EncodeToString(fields[0]))
		fmt.Fprintf(out, "Encoded:    %s\n", fields[1])
		fmt.Fprintf(out, "Address:    %s\n", fields[2])
		return nil
	},
}

var maspAddressCmd = &cobra.Command{
	Use:   "masp-address",
	Short: "Show the default shielded payment address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		buf := make([]byte, addressBufferSize)
		n, err := d.FillMaspAddress(buf)
		if err != nil {
			return err
		}
		if n <= sapling.PaymentAddressSize+1 {
			return errors.Wrap(txerr.ErrUnknown, "short masp address response")
		}
		text := buf[sapling.PaymentAddressSize+1 : n]
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Diversifier: %s\n", hex.EncodeToString(buf[:sapling.DiversifierSize]))
		fmt.Fprintf(out, "Address:     %s\n", text)
		return nil
	},
}

func init() {
	addressCmd.Flags().StringVarP(&addressKeyKind, "key", "k", "ed25519", "key kind: ed25519|secp256k1")
}

func parseKeyKind(s string) (tx.KeyKind, error) {
	switch s {
	case tx.Ed25519.String():
		return tx.Ed25519, nil
	case tx.Secp256k1.String():
		return tx.Secp256k1, nil
	default:
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "key kind %q", s)
	}
}

// splitFields splits a FillAddress response: the tagged public key followed
// by two length-prefixed strings.
func splitFields(b []byte, tag int) ([][]byte, error) {
	size, err := tx.KeyKind(tag).PublicKeySize()
	if err != nil {
		return nil, err
	}
	head := 1 + size
	if len(b) < head {
		return nil, errors.Wrap(txerr.ErrUnknown, "short address response")
	}
	fields := [][]byte{b[:head]}
	rest := b[head:]
	for i := 0; i < 2; i++ {
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return nil, errors.Wrap(txerr.ErrUnknown, "short address response")
		}
		fields = append(fields, rest[1:1+int(rest[0])])
		rest = rest[1+int(rest[0]):]
	}
	return fields, nil
}
