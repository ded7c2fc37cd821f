package store

import (
	"encoding/binary"
	"io"
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
)

// Key layout:
//
//	ITEM      | kind | u32 index  -> record
//	COUNT     | kind            -> u32
//	SIGNATURE | u32 index       -> 64 bytes
//	SIG_META  | SIG_COUNT       -> u32
//	SIG_META  | SIG_CURSOR      -> u32
const (
	keyItem      byte = 0x01
	keyCount     byte = 0x02
	keySignature byte = 0x03
	keySigMeta   byte = 0x04

	sigMetaCount  byte = 0x00
	sigMetaCursor byte = 0x01
)

func itemKey(kind ItemKind, i int) []byte {
	key := []byte{keyItem, byte(kind), 0, 0, 0, 0}
	binary.BigEndian.PutUint32(key[2:], uint32(i))
	return key
}

func countKey(kind ItemKind) []byte {
	return []byte{keyCount, byte(kind)}
}

func signatureKey(i int) []byte {
	key := []byte{keySignature, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(key[1:], uint32(i))
	return key
}

func sigMetaKey(field byte) []byte {
	return []byte{keySigMeta, field}
}

func encodeU32(n int) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(n))
	return out
}

// Pebble is a Store persisted in a pebble database, so randomness survives a
// restart between computeRandomness and signMasp. Deleted records are not
// scrubbed from sstables until compaction.
type Pebble struct {
	db     *pebble.DB
	logger *zap.Logger
}

// NewPebble opens or creates the store at path. opts may be nil.
func NewPebble(path string, opts *pebble.Options, logger *zap.Logger) (*Pebble, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	logger.Debug("store opened", zap.String("path", path))
	return &Pebble{db: db, logger: logger}, nil
}

func (p *Pebble) get(key []byte) ([]byte, bool, error) {
	data, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "get")
	}
	copied := slices.Clone(data)
	closer.Close()
	return copied, true, nil
}

func (p *Pebble) getU32(key []byte) (int, error) {
	data, ok, err := p.get(key)
	if err != nil || !ok {
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.Wrapf(txerr.ErrUnknown, "counter length %d", len(data))
	}
	return int(binary.BigEndian.Uint32(data)), nil
}

func (p *Pebble) appendItem(kind ItemKind, record []byte) error {
	defer crypto.Wipe(record)

	n, err := p.Count(kind)
	if err != nil {
		return err
	}
	if err := checkCapacity(kind.String(), n); err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set(itemKey(kind, n), record, nil); err != nil {
		return errors.Wrap(err, "append item")
	}
	if err := b.Set(countKey(kind), encodeU32(n+1), nil); err != nil {
		return errors.Wrap(err, "append item")
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "append item")
	}
	p.logger.Debug("item stored", zap.Stringer("kind", kind), zap.Int("index", n))
	return nil
}

func (p *Pebble) item(kind ItemKind, i int) ([]byte, error) {
	n, err := p.Count(kind)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(kind.String(), i, n); err != nil {
		return nil, err
	}
	data, ok, err := p.get(itemKey(kind, i))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(txerr.ErrUnknown, "%s %d missing", kind, i)
	}
	return data, nil
}

func (p *Pebble) AppendSpend(item SpendItem) error {
	return p.appendItem(KindSpend, encodeSpend(item))
}

func (p *Pebble) AppendOutput(item OutputItem) error {
	return p.appendItem(KindOutput, encodeOutput(item))
}

func (p *Pebble) AppendConvert(item ConvertItem) error {
	return p.appendItem(KindConvert, slices.Clone(item.Rcv[:]))
}

func (p *Pebble) Spend(i int) (SpendItem, error) {
	data, err := p.item(KindSpend, i)
	if err != nil {
		return SpendItem{}, err
	}
	defer crypto.Wipe(data)
	return decodeSpend(data)
}

func (p *Pebble) Output(i int) (OutputItem, error) {
	data, err := p.item(KindOutput, i)
	if err != nil {
		return OutputItem{}, err
	}
	defer crypto.Wipe(data)
	return decodeOutput(data)
}

func (p *Pebble) Convert(i int) (ConvertItem, error) {
	data, err := p.item(KindConvert, i)
	if err != nil {
		return ConvertItem{}, err
	}
	defer crypto.Wipe(data)
	return decodeConvert(data)
}

func (p *Pebble) Count(kind ItemKind) (int, error) {
	if !kind.Valid() {
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "item kind %d", kind)
	}
	return p.getU32(countKey(kind))
}

func (p *Pebble) ClearItems() error {
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange([]byte{keyItem}, []byte{keyItem + 1}, nil); err != nil {
		return errors.Wrap(err, "clear items")
	}
	if err := b.DeleteRange([]byte{keyCount}, []byte{keyCount + 1}, nil); err != nil {
		return errors.Wrap(err, "clear items")
	}
	return errors.Wrap(b.Commit(pebble.Sync), "clear items")
}

func (p *Pebble) AppendSignature(sig [SignatureSize]byte) error {
	n, err := p.SignatureCount()
	if err != nil {
		return err
	}
	if err := checkCapacity("signature", n); err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set(signatureKey(n), sig[:], nil); err != nil {
		return errors.Wrap(err, "append signature")
	}
	if err := b.Set(sigMetaKey(sigMetaCount), encodeU32(n+1), nil); err != nil {
		return errors.Wrap(err, "append signature")
	}
	return errors.Wrap(b.Commit(pebble.Sync), "append signature")
}

func (p *Pebble) NextSignature() ([SignatureSize]byte, error) {
	var sig [SignatureSize]byte
	n, err := p.SignatureCount()
	if err != nil {
		return sig, err
	}
	cursor, err := p.getU32(sigMetaKey(sigMetaCursor))
	if err != nil {
		return sig, err
	}
	if cursor >= n {
		return sig, txerr.ErrNoMoreSignatures
	}

	data, ok, err := p.get(signatureKey(cursor))
	if err != nil {
		return sig, err
	}
	if !ok || len(data) != SignatureSize {
		return sig, errors.Wrapf(txerr.ErrUnknown, "signature %d missing", cursor)
	}
	copy(sig[:], data)

	if err := p.db.Set(sigMetaKey(sigMetaCursor), encodeU32(cursor+1), pebble.Sync); err != nil {
		return [SignatureSize]byte{}, errors.Wrap(err, "advance signature cursor")
	}
	return sig, nil
}

func (p *Pebble) HasMoreSignatures() (bool, error) {
	n, err := p.SignatureCount()
	if err != nil {
		return false, err
	}
	cursor, err := p.getU32(sigMetaKey(sigMetaCursor))
	if err != nil {
		return false, err
	}
	return cursor < n, nil
}

func (p *Pebble) SignatureCount() (int, error) {
	return p.getU32(sigMetaKey(sigMetaCount))
}

func (p *Pebble) TruncateSignatures(n int) error {
	count, err := p.SignatureCount()
	if err != nil {
		return err
	}
	if n < 0 || n > count {
		return errors.Wrapf(txerr.ErrOutOfBounds, "truncate to %d of %d", n, count)
	}
	cursor, err := p.getU32(sigMetaKey(sigMetaCursor))
	if err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(signatureKey(n), []byte{keySignature + 1}, nil); err != nil {
		return errors.Wrap(err, "truncate signatures")
	}
	if err := b.Set(sigMetaKey(sigMetaCount), encodeU32(n), nil); err != nil {
		return errors.Wrap(err, "truncate signatures")
	}
	if cursor > n {
		if err := b.Set(sigMetaKey(sigMetaCursor), encodeU32(n), nil); err != nil {
			return errors.Wrap(err, "truncate signatures")
		}
	}
	return errors.Wrap(b.Commit(pebble.Sync), "truncate signatures")
}

func (p *Pebble) ClearSignatures() error {
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange([]byte{keySignature}, []byte{keySigMeta + 1}, nil); err != nil {
		return errors.Wrap(err, "clear signatures")
	}
	return errors.Wrap(b.Commit(pebble.Sync), "clear signatures")
}

func (p *Pebble) Close() error {
	return p.db.Close()
}

var (
	_ Store     = (*Pebble)(nil)
	_ io.Closer = (*Pebble)(nil)
)
