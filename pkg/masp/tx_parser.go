package masp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// TxVersion is the MASP v5 version field with the overwintered flag set.
const TxVersion uint32 = 5 | 1<<31

// AddressSize is the length of a transparent address hash.
const AddressSize = 20

const transparentRecordSize = AssetTypeSize + 8 + AddressSize

// Transaction is a parsed MASP v5 transaction.
//
// Layout:
//
//	header      version | version_group_id | branch_id | lock_time | expiry
//	transparent vin[] | vout[]                    (asset | value | address)
//	sapling     spends[] | converts[] | outputs[]
//	            value_balance (if any description)
//	            spend anchor (if spends) | convert anchor (if converts)
//	            spend proofs | spend auth sigs | convert proofs |
//	            output proofs | binding sig
type Transaction struct {
	Version           uint32
	VersionGroupID    uint32
	ConsensusBranchID uint32
	LockTime          uint32
	ExpiryHeight      uint32

	TransparentInputs  []TxIn
	TransparentOutputs []TxOut

	Spends        []SpendDescription
	Converts      []ConvertDescription
	Outputs       []OutputDescription
	ValueBalance  []AssetAmount
	SpendAnchor   [32]byte
	ConvertAnchor [32]byte
	BindingSig    [SignatureSize]byte
}

// TxIn is a transparent input. MASP transparent value is asset-typed.
type TxIn struct {
	Asset   AssetType
	Value   uint64
	Address [AddressSize]byte
}

// TxOut is a transparent output.
type TxOut struct {
	Asset   AssetType
	Value   uint64
	Address [AddressSize]byte
}

// SpendDescription is a shielded spend. SpendAuthSig is empty until the
// device signs the spend.
type SpendDescription struct {
	Cv           [32]byte
	Nullifier    [32]byte
	Rk           [32]byte
	Proof        [ProofSize]byte
	SpendAuthSig [SignatureSize]byte
}

// ConvertDescription is an applied conversion. It carries no signature.
type ConvertDescription struct {
	Cv    [32]byte
	Proof [ProofSize]byte
}

// OutputDescription is a shielded output with its note ciphertexts.
type OutputDescription struct {
	Cv            [32]byte
	Cmu           [32]byte
	EphemeralKey  [32]byte
	EncCiphertext [EncCiphertextSize]byte
	OutCiphertext [OutCiphertextSize]byte
	Proof         [ProofSize]byte
}

// AssetAmount is one term of the value balance: a signed 128-bit
// little-endian amount of an asset.
type AssetAmount struct {
	Asset  AssetType
	Amount [16]byte
}

// NewAssetAmount sign-extends v to 128 bits.
func NewAssetAmount(asset AssetType, v int64) AssetAmount {
	a := AssetAmount{Asset: asset}
	binary.LittleEndian.PutUint64(a.Amount[:8], uint64(v))
	if v < 0 {
		binary.LittleEndian.PutUint64(a.Amount[8:], ^uint64(0))
	}
	return a
}

// HasSapling reports whether any shielded description is present.
func (tx *Transaction) HasSapling() bool {
	return len(tx.Spends) > 0 || len(tx.Converts) > 0 || len(tx.Outputs) > 0
}

// Bundle returns the wire view of the shielded descriptions.
func (tx *Transaction) Bundle() *Bundle {
	spends := make([]byte, 0, len(tx.Spends)*SpendRecordSize)
	for _, s := range tx.Spends {
		spends = append(spends, s.Cv[:]...)
		spends = append(spends, s.Nullifier[:]...)
		spends = append(spends, s.Rk[:]...)
	}
	converts := make([]byte, 0, len(tx.Converts)*ConvertRecordSize)
	for _, c := range tx.Converts {
		converts = append(converts, c.Cv[:]...)
	}
	outputs := make([]byte, 0, len(tx.Outputs)*OutputRecordSize)
	for _, o := range tx.Outputs {
		outputs = append(outputs, o.Cv[:]...)
		outputs = append(outputs, o.Cmu[:]...)
		outputs = append(outputs, o.EphemeralKey[:]...)
		outputs = append(outputs, o.EncCiphertext[:]...)
		outputs = append(outputs, o.OutCiphertext[:]...)
	}
	return &Bundle{spends: spends, converts: converts, outputs: outputs}
}

// ParseTransaction parses raw MASP v5 transaction bytes. Trailing bytes are
// rejected.
func ParseTransaction(data []byte) (*Transaction, error) {
	tx, err := parseTransaction(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "masp transaction: %v", err)
	}
	return tx, nil
}

func parseTransaction(r *bytes.Reader) (*Transaction, error) {
	tx := &Transaction{}

	for _, f := range []struct {
		name string
		dst  *uint32
	}{
		{"version", &tx.Version},
		{"version_group_id", &tx.VersionGroupID},
		{"consensus_branch_id", &tx.ConsensusBranchID},
		{"lock_time", &tx.LockTime},
		{"expiry_height", &tx.ExpiryHeight},
	} {
		if err := binary.Read(r, binary.LittleEndian, f.dst); err != nil {
			return nil, errors.Wrapf(err, "reading %s", f.name)
		}
	}
	if tx.Version != TxVersion {
		return nil, errors.Errorf("unsupported version %#x", tx.Version)
	}

	if err := parseTransparentBundle(r, tx); err != nil {
		return nil, errors.Wrap(err, "parsing transparent bundle")
	}
	if err := parseSaplingBundle(r, tx); err != nil {
		return nil, errors.Wrap(err, "parsing sapling bundle")
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes", r.Len())
	}
	return tx, nil
}

func parseTransparentBundle(r *bytes.Reader, tx *Transaction) error {
	numInputs, err := readCount(r, transparentRecordSize)
	if err != nil {
		return errors.Wrap(err, "reading input count")
	}
	tx.TransparentInputs = make([]TxIn, numInputs)
	for i := range tx.TransparentInputs {
		in := &tx.TransparentInputs[i]
		if err := readTransparent(r, &in.Asset, &in.Value, &in.Address); err != nil {
			return errors.Wrapf(err, "parsing input %d", i)
		}
	}

	numOutputs, err := readCount(r, transparentRecordSize)
	if err != nil {
		return errors.Wrap(err, "reading output count")
	}
	tx.TransparentOutputs = make([]TxOut, numOutputs)
	for i := range tx.TransparentOutputs {
		out := &tx.TransparentOutputs[i]
		if err := readTransparent(r, &out.Asset, &out.Value, &out.Address); err != nil {
			return errors.Wrapf(err, "parsing output %d", i)
		}
	}
	return nil
}

func readTransparent(r io.Reader, asset *AssetType, value *uint64, addr *[AddressSize]byte) error {
	if _, err := io.ReadFull(r, asset[:]); err != nil {
		return errors.Wrap(err, "reading asset type")
	}
	if err := binary.Read(r, binary.LittleEndian, value); err != nil {
		return errors.Wrap(err, "reading value")
	}
	if _, err := io.ReadFull(r, addr[:]); err != nil {
		return errors.Wrap(err, "reading address")
	}
	return nil
}

func readAll(r io.Reader, fields ...[]byte) error {
	for _, f := range fields {
		if _, err := io.ReadFull(r, f); err != nil {
			return err
		}
	}
	return nil
}

func parseSaplingBundle(r *bytes.Reader, tx *Transaction) error {
	numSpends, err := readCount(r, SpendRecordSize)
	if err != nil {
		return errors.Wrap(err, "reading spend count")
	}
	tx.Spends = make([]SpendDescription, numSpends)
	for i := range tx.Spends {
		s := &tx.Spends[i]
		if err := readAll(r, s.Cv[:], s.Nullifier[:], s.Rk[:]); err != nil {
			return errors.Wrapf(err, "reading spend %d", i)
		}
	}

	numConverts, err := readCount(r, ConvertRecordSize)
	if err != nil {
		return errors.Wrap(err, "reading convert count")
	}
	tx.Converts = make([]ConvertDescription, numConverts)
	for i := range tx.Converts {
		if err := readAll(r, tx.Converts[i].Cv[:]); err != nil {
			return errors.Wrapf(err, "reading convert %d", i)
		}
	}

	numOutputs, err := readCount(r, OutputRecordSize)
	if err != nil {
		return errors.Wrap(err, "reading output count")
	}
	tx.Outputs = make([]OutputDescription, numOutputs)
	for i := range tx.Outputs {
		o := &tx.Outputs[i]
		if err := readAll(r, o.Cv[:], o.Cmu[:], o.EphemeralKey[:], o.EncCiphertext[:], o.OutCiphertext[:]); err != nil {
			return errors.Wrapf(err, "reading output %d", i)
		}
	}

	if !tx.HasSapling() {
		return nil
	}

	numBalance, err := readCount(r, AssetTypeSize+16)
	if err != nil {
		return errors.Wrap(err, "reading value balance count")
	}
	tx.ValueBalance = make([]AssetAmount, numBalance)
	for i := range tx.ValueBalance {
		vb := &tx.ValueBalance[i]
		if err := readAll(r, vb.Asset[:], vb.Amount[:]); err != nil {
			return errors.Wrapf(err, "reading value balance %d", i)
		}
	}

	if numSpends > 0 {
		if err := readAll(r, tx.SpendAnchor[:]); err != nil {
			return errors.Wrap(err, "reading spend anchor")
		}
	}
	if numConverts > 0 {
		if err := readAll(r, tx.ConvertAnchor[:]); err != nil {
			return errors.Wrap(err, "reading convert anchor")
		}
	}
	for i := range tx.Spends {
		if err := readAll(r, tx.Spends[i].Proof[:]); err != nil {
			return errors.Wrapf(err, "reading spend proof %d", i)
		}
	}
	for i := range tx.Spends {
		if err := readAll(r, tx.Spends[i].SpendAuthSig[:]); err != nil {
			return errors.Wrapf(err, "reading spend auth sig %d", i)
		}
	}
	for i := range tx.Converts {
		if err := readAll(r, tx.Converts[i].Proof[:]); err != nil {
			return errors.Wrapf(err, "reading convert proof %d", i)
		}
	}
	for i := range tx.Outputs {
		if err := readAll(r, tx.Outputs[i].Proof[:]); err != nil {
			return errors.Wrapf(err, "reading output proof %d", i)
		}
	}
	if err := readAll(r, tx.BindingSig[:]); err != nil {
		return errors.Wrap(err, "reading binding sig")
	}
	return nil
}

// readCount reads a compact size and rejects counts that cannot fit in the
// remaining input, so a hostile count never drives a large allocation.
func readCount(r *bytes.Reader, recordSize int) (int, error) {
	n, err := readCompactSize(r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len()/recordSize) {
		return 0, errors.Errorf("count %d exceeds remaining input", n)
	}
	return int(n), nil
}

// readCompactSize reads a Bitcoin-style variable-length integer.
func readCompactSize(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, err
	}

	switch first[0] {
	case 253:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 254:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 255:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return v, nil
	default:
		return uint64(first[0]), nil
	}
}

// writeCompactSize writes a Bitcoin-style variable-length integer.
func writeCompactSize(w io.Writer, n uint64) {
	switch {
	case n < 253:
		w.Write([]byte{byte(n)})
	case n <= 0xFFFF:
		w.Write([]byte{253})
		binary.Write(w, binary.LittleEndian, uint16(n))
	case n <= 0xFFFFFFFF:
		w.Write([]byte{254})
		binary.Write(w, binary.LittleEndian, uint32(n))
	default:
		w.Write([]byte{255})
		binary.Write(w, binary.LittleEndian, n)
	}
}

// SerializeTransaction is the inverse of ParseTransaction.
func SerializeTransaction(tx *Transaction) []byte {
	var buf bytes.Buffer
	for _, v := range []uint32{tx.Version, tx.VersionGroupID, tx.ConsensusBranchID, tx.LockTime, tx.ExpiryHeight} {
		binary.Write(&buf, binary.LittleEndian, v)
	}

	writeCompactSize(&buf, uint64(len(tx.TransparentInputs)))
	for _, in := range tx.TransparentInputs {
		buf.Write(in.Asset[:])
		binary.Write(&buf, binary.LittleEndian, in.Value)
		buf.Write(in.Address[:])
	}
	writeCompactSize(&buf, uint64(len(tx.TransparentOutputs)))
	for _, out := range tx.TransparentOutputs {
		buf.Write(out.Asset[:])
		binary.Write(&buf, binary.LittleEndian, out.Value)
		buf.Write(out.Address[:])
	}

	b := tx.Bundle()
	writeCompactSize(&buf, uint64(len(tx.Spends)))
	buf.Write(b.spends)
	writeCompactSize(&buf, uint64(len(tx.Converts)))
	buf.Write(b.converts)
	writeCompactSize(&buf, uint64(len(tx.Outputs)))
	buf.Write(b.outputs)

	if !tx.HasSapling() {
		return buf.Bytes()
	}

	writeCompactSize(&buf, uint64(len(tx.ValueBalance)))
	for _, vb := range tx.ValueBalance {
		buf.Write(vb.Asset[:])
		buf.Write(vb.Amount[:])
	}
	if len(tx.Spends) > 0 {
		buf.Write(tx.SpendAnchor[:])
	}
	if len(tx.Converts) > 0 {
		buf.Write(tx.ConvertAnchor[:])
	}
	for _, s := range tx.Spends {
		buf.Write(s.Proof[:])
	}
	for _, s := range tx.Spends {
		buf.Write(s.SpendAuthSig[:])
	}
	for _, c := range tx.Converts {
		buf.Write(c.Proof[:])
	}
	for _, o := range tx.Outputs {
		buf.Write(o.Proof[:])
	}
	buf.Write(tx.BindingSig[:])
	return buf.Bytes()
}
