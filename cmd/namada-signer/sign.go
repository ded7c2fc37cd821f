package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/suffix-labs/namada-signer/pkg/signer"
	"github.com/suffix-labs/namada-signer/pkg/tx"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

var (
	txPath  string
	saltHex string
)

// signOutput is the printed form of a signer.Response.
type signOutput struct {
	PubKey           tx.Hex `json:"pubkey"`
	Salt             tx.Hex `json:"salt"`
	RawSignature     tx.Hex `json:"raw_signature"`
	WrapperSignature tx.Hex `json:"wrapper_signature"`
	RawIndices       []int  `json:"raw_indices"`
	FinalIndices     []int  `json:"final_indices"`
}

func indices(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// parseSalt decodes --salt. Without it a random salt is drawn here; the
// signer itself never generates one.
func parseSalt(s string) ([signer.SaltSize]byte, error) {
	var salt [signer.SaltSize]byte
	if s == "" {
		_, err := rand.Read(salt[:])
		return salt, errors.Wrap(err, "draw salt")
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != signer.SaltSize {
		return salt, errors.Wrapf(txerr.ErrInvalidSettings, "salt must be %d hex bytes", signer.SaltSize)
	}
	copy(salt[:], b)
	return salt, nil
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Produce the raw and wrapper signatures of a transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tx.LoadFile(txPath)
		if err != nil {
			return err
		}
		salt, err := parseSalt(saltHex)
		if err != nil {
			return err
		}
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		buf := make([]byte, signer.MinResponseSize)
		n, err := d.Sign(t, salt, buf)
		if err != nil {
			return err
		}
		resp, err := signer.ParseResponse(buf[:n])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(signOutput{
			PubKey:           resp.PubKey[:],
			Salt:             resp.Salt[:],
			RawSignature:     resp.RawSignature[:],
			WrapperSignature: resp.WrapperSignature[:],
			RawIndices:       indices(resp.RawIndices),
			FinalIndices:     indices(resp.FinalIndices),
		})
	},
}

var signMaspCmd = &cobra.Command{
	Use:   "sign-masp",
	Short: "Verify a shielded transaction and sign its spends",
	Long: `Verify every spend, output and convert commitment of the transaction
against the randomness recorded by earlier "randomness" calls, then sign all
spends. Retrieve the signatures with "spend-signature".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tx.LoadFile(txPath)
		if err != nil {
			return err
		}
		d, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		buf := make([]byte, signer.MaspDigestSize)
		n, err := d.SignMasp(t, buf)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Transaction digest: %s\n", hex.EncodeToString(buf[:n]))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signCmd, signMaspCmd} {
		c.Flags().StringVarP(&txPath, "tx", "t", "", "parsed transaction document (JSON)")
		c.MarkFlagRequired("tx")
	}
	signCmd.Flags().StringVar(&saltHex, "salt", "", "32-byte salt in hex (default: random)")
}
