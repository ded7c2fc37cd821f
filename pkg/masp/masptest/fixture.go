// Package masptest builds MASP transactions whose commitments agree with the
// randomness held in a store, for tests of the verifier and signer.
package masptest

import (
	"github.com/suffix-labs/namada-signer/pkg/jubjub"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/sapling"
	"github.com/suffix-labs/namada-signer/pkg/store"
)

// BranchID is the consensus branch id used by fixtures.
const BranchID uint32 = 0xe9ff75a6

// Asset returns the identifier of a named test asset.
func Asset(name string) masp.AssetType {
	a, err := masp.NewAssetType([]byte(name))
	if err != nil {
		panic(err)
	}
	return a
}

// Transaction returns a transaction matching b and the randomness already
// recorded in items. Item i backs builder entry i and bundle slot i.
func Transaction(ak jubjub.Point, b *masp.Builder, items store.ItemStore) (*masp.Transaction, error) {
	tx := &masp.Transaction{
		Version:           masp.TxVersion,
		VersionGroupID:    0x26a7270a,
		ConsensusBranchID: BranchID,
		ExpiryHeight:      100,
	}

	for i, s := range b.Spends {
		item, err := items.Spend(i)
		if err != nil {
			return nil, err
		}
		base, err := s.Asset.ValueBase()
		if err != nil {
			return nil, err
		}
		rcv, err := jubjub.ScalarFromBytes(item.Rcv)
		if err != nil {
			return nil, err
		}
		alpha, err := jubjub.ScalarFromBytes(item.Alpha)
		if err != nil {
			return nil, err
		}
		d := masp.SpendDescription{
			Cv: sapling.ValueCommitment(base, s.Value, rcv).Encode(),
			Rk: sapling.RandomizedKey(ak, alpha).Encode(),
		}
		d.Nullifier[0] = byte(i + 1)
		tx.Spends = append(tx.Spends, d)
	}

	for i, o := range b.Outputs {
		item, err := items.Output(i)
		if err != nil {
			return nil, err
		}
		base, err := o.Asset.ValueBase()
		if err != nil {
			return nil, err
		}
		rcv, err := jubjub.ScalarFromBytes(item.Rcv)
		if err != nil {
			return nil, err
		}
		d := masp.OutputDescription{Cv: sapling.ValueCommitment(base, o.Value, rcv).Encode()}
		d.Cmu[0] = byte(i + 1)
		d.EncCiphertext[100] = byte(i + 1)
		tx.Outputs = append(tx.Outputs, d)
	}

	for i, c := range b.Converts {
		item, err := items.Convert(i)
		if err != nil {
			return nil, err
		}
		base, err := masp.ConversionBase(c.Conversion)
		if err != nil {
			return nil, err
		}
		rcv, err := jubjub.ScalarFromBytes(item.Rcv)
		if err != nil {
			return nil, err
		}
		tx.Converts = append(tx.Converts, masp.ConvertDescription{
			Cv: sapling.ValueCommitment(base, c.Value, rcv).Encode(),
		})
	}

	if tx.HasSapling() {
		tx.ValueBalance = []masp.AssetAmount{masp.NewAssetAmount(Asset("fee"), 10)}
		tx.SpendAnchor[0] = 0xa1
		tx.ConvertAnchor[0] = 0xa2
	}
	return tx, nil
}
