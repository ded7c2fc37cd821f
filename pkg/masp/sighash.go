package masp

import (
	"encoding/binary"
	"hash"

	"github.com/suffix-labs/namada-signer/pkg/crypto"
)

// Digest personalizations. The transaction digest personalization is the
// 12-byte prefix followed by the little-endian consensus branch id.
const (
	TxHashPersonalization = "ZcashTxHash_"

	HeaderDigestPersonalization      = "ZTxIdHeadersHash"
	TransparentDigestPersonalization = "ZTxIdTranspaHash"
	SaplingDigestPersonalization     = "ZTxIdSaplingHash"

	InputsDigestPersonalization  = "ZTxIdPrevoutHash"
	OutputsDigestPersonalization = "ZTxIdOutputsHash"

	SpendsDigestPersonalization         = "ZTxIdSSpendsHash"
	SpendsCompactPersonalization        = "ZTxIdSSpendCHash"
	SpendsNoncompactPersonalization     = "ZTxIdSSpendNHash"
	ConvertsDigestPersonalization       = "ZTxIdConvertHash"
	OutputsSaplingDigestPersonalization = "ZTxIdSOutputHash"
	OutputsCompactPersonalization       = "ZTxIdSOutC__Hash"
	OutputsMemosPersonalization         = "ZTxIdSOutM__Hash"
	OutputsNoncompactPersonalization    = "ZTxIdSOutN__Hash"
)

// Split points of the output note ciphertext: the compact prefix, then the
// memo, then the remainder.
const (
	encCompactSize = 52
	encMemoEnd     = 564
)

// TxDigests holds the top-level digests of a transaction.
type TxDigests struct {
	HeaderDigest      [32]byte
	TransparentDigest [32]byte
	SaplingDigest     [32]byte
}

func newDigest(personalization string) hash.Hash {
	return crypto.NewBlake2b(32, personalization)
}

func sum(h hash.Hash) [32]byte {
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// ComputeTxDigests computes the header, transparent and sapling digests.
func ComputeTxDigests(tx *Transaction) *TxDigests {
	return &TxDigests{
		HeaderDigest:      computeHeaderDigest(tx),
		TransparentDigest: computeTransparentDigest(tx),
		SaplingDigest:     computeSaplingDigest(tx),
	}
}

// TxID is BLAKE2b-256("ZcashTxHash_" || branch_id, header || transparent ||
// sapling).
func TxID(tx *Transaction) [32]byte {
	d := ComputeTxDigests(tx)

	var personalization [16]byte
	copy(personalization[:], TxHashPersonalization)
	binary.LittleEndian.PutUint32(personalization[12:], tx.ConsensusBranchID)

	h := newDigest(string(personalization[:]))
	h.Write(d.HeaderDigest[:])
	h.Write(d.TransparentDigest[:])
	h.Write(d.SaplingDigest[:])
	return sum(h)
}

// SigHash is the digest every spend authorization signs. Transparent MASP
// inputs carry no signatures of their own, so it equals the transaction id.
func SigHash(tx *Transaction) [32]byte {
	return TxID(tx)
}

func computeHeaderDigest(tx *Transaction) [32]byte {
	h := newDigest(HeaderDigestPersonalization)
	for _, v := range []uint32{tx.Version, tx.VersionGroupID, tx.ConsensusBranchID, tx.LockTime, tx.ExpiryHeight} {
		binary.Write(h, binary.LittleEndian, v)
	}
	return sum(h)
}

func computeTransparentDigest(tx *Transaction) [32]byte {
	h := newDigest(TransparentDigestPersonalization)
	if len(tx.TransparentInputs) == 0 && len(tx.TransparentOutputs) == 0 {
		return sum(h)
	}

	in := newDigest(InputsDigestPersonalization)
	for _, txin := range tx.TransparentInputs {
		in.Write(txin.Asset[:])
		binary.Write(in, binary.LittleEndian, txin.Value)
		in.Write(txin.Address[:])
	}
	out := newDigest(OutputsDigestPersonalization)
	for _, txout := range tx.TransparentOutputs {
		out.Write(txout.Asset[:])
		binary.Write(out, binary.LittleEndian, txout.Value)
		out.Write(txout.Address[:])
	}

	inDigest, outDigest := sum(in), sum(out)
	h.Write(inDigest[:])
	h.Write(outDigest[:])
	return sum(h)
}

func computeSaplingDigest(tx *Transaction) [32]byte {
	h := newDigest(SaplingDigestPersonalization)
	if !tx.HasSapling() {
		return sum(h)
	}

	spends := computeSpendsDigest(tx)
	converts := computeConvertsDigest(tx)
	outputs := computeOutputsDigest(tx)
	h.Write(spends[:])
	h.Write(converts[:])
	h.Write(outputs[:])

	writeCompactSize(h, uint64(len(tx.ValueBalance)))
	for _, vb := range tx.ValueBalance {
		h.Write(vb.Asset[:])
		h.Write(vb.Amount[:])
	}
	return sum(h)
}

func computeSpendsDigest(tx *Transaction) [32]byte {
	h := newDigest(SpendsDigestPersonalization)
	if len(tx.Spends) == 0 {
		return sum(h)
	}

	compact := newDigest(SpendsCompactPersonalization)
	for _, s := range tx.Spends {
		compact.Write(s.Nullifier[:])
	}
	noncompact := newDigest(SpendsNoncompactPersonalization)
	for _, s := range tx.Spends {
		noncompact.Write(s.Cv[:])
		noncompact.Write(tx.SpendAnchor[:])
		noncompact.Write(s.Rk[:])
	}

	c, n := sum(compact), sum(noncompact)
	h.Write(c[:])
	h.Write(n[:])
	return sum(h)
}

func computeConvertsDigest(tx *Transaction) [32]byte {
	h := newDigest(ConvertsDigestPersonalization)
	for _, c := range tx.Converts {
		h.Write(c.Cv[:])
		h.Write(tx.ConvertAnchor[:])
	}
	return sum(h)
}

func computeOutputsDigest(tx *Transaction) [32]byte {
	h := newDigest(OutputsSaplingDigestPersonalization)
	if len(tx.Outputs) == 0 {
		return sum(h)
	}

	compact := newDigest(OutputsCompactPersonalization)
	memos := newDigest(OutputsMemosPersonalization)
	noncompact := newDigest(OutputsNoncompactPersonalization)
	for _, o := range tx.Outputs {
		compact.Write(o.Cmu[:])
		compact.Write(o.EphemeralKey[:])
		compact.Write(o.EncCiphertext[:encCompactSize])

		memos.Write(o.EncCiphertext[encCompactSize:encMemoEnd])

		noncompact.Write(o.Cv[:])
		noncompact.Write(o.EncCiphertext[encMemoEnd:])
		noncompact.Write(o.OutCiphertext[:])
	}

	c, m, n := sum(compact), sum(memos), sum(noncompact)
	h.Write(c[:])
	h.Write(m[:])
	h.Write(n[:])
	return sum(h)
}
