package store

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// Memory is a volatile Store. Cleared entries are zeroed in place.
type Memory struct {
	spends   []SpendItem
	outputs  []OutputItem
	converts []ConvertItem
	sigs     [][SignatureSize]byte
	cursor   int
}

// NewMemory returns an empty volatile store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AppendSpend(item SpendItem) error {
	if err := checkCapacity("spend", len(m.spends)); err != nil {
		return err
	}
	m.spends = append(m.spends, item)
	return nil
}

func (m *Memory) AppendOutput(item OutputItem) error {
	if err := checkCapacity("output", len(m.outputs)); err != nil {
		return err
	}
	m.outputs = append(m.outputs, item)
	return nil
}

func (m *Memory) AppendConvert(item ConvertItem) error {
	if err := checkCapacity("convert", len(m.converts)); err != nil {
		return err
	}
	m.converts = append(m.converts, item)
	return nil
}

func (m *Memory) Spend(i int) (SpendItem, error) {
	if err := checkIndex("spend", i, len(m.spends)); err != nil {
		return SpendItem{}, err
	}
	return m.spends[i], nil
}

func (m *Memory) Output(i int) (OutputItem, error) {
	if err := checkIndex("output", i, len(m.outputs)); err != nil {
		return OutputItem{}, err
	}
	return m.outputs[i], nil
}

func (m *Memory) Convert(i int) (ConvertItem, error) {
	if err := checkIndex("convert", i, len(m.converts)); err != nil {
		return ConvertItem{}, err
	}
	return m.converts[i], nil
}

func (m *Memory) Count(kind ItemKind) (int, error) {
	switch kind {
	case KindSpend:
		return len(m.spends), nil
	case KindOutput:
		return len(m.outputs), nil
	case KindConvert:
		return len(m.converts), nil
	default:
		return 0, errors.Wrapf(txerr.ErrInvalidSettings, "item kind %d", kind)
	}
}

func (m *Memory) ClearItems() error {
	for i := range m.spends {
		m.spends[i] = SpendItem{}
	}
	for i := range m.outputs {
		m.outputs[i] = OutputItem{}
	}
	for i := range m.converts {
		m.converts[i] = ConvertItem{}
	}
	m.spends, m.outputs, m.converts = nil, nil, nil
	return nil
}

func (m *Memory) AppendSignature(sig [SignatureSize]byte) error {
	if err := checkCapacity("signature", len(m.sigs)); err != nil {
		return err
	}
	m.sigs = append(m.sigs, sig)
	return nil
}

func (m *Memory) NextSignature() ([SignatureSize]byte, error) {
	if m.cursor >= len(m.sigs) {
		return [SignatureSize]byte{}, txerr.ErrNoMoreSignatures
	}
	sig := m.sigs[m.cursor]
	m.cursor++
	return sig, nil
}

func (m *Memory) HasMoreSignatures() (bool, error) {
	return m.cursor < len(m.sigs), nil
}

func (m *Memory) SignatureCount() (int, error) {
	return len(m.sigs), nil
}

func (m *Memory) TruncateSignatures(n int) error {
	if n < 0 || n > len(m.sigs) {
		return errors.Wrapf(txerr.ErrOutOfBounds, "truncate to %d of %d", n, len(m.sigs))
	}
	for i := n; i < len(m.sigs); i++ {
		crypto.Wipe(m.sigs[i][:])
	}
	m.sigs = m.sigs[:n]
	if m.cursor > n {
		m.cursor = n
	}
	return nil
}

func (m *Memory) ClearSignatures() error {
	if err := m.TruncateSignatures(0); err != nil {
		return err
	}
	m.sigs = nil
	m.cursor = 0
	return nil
}

func (m *Memory) Close() error {
	if err := m.ClearItems(); err != nil {
		return err
	}
	return m.ClearSignatures()
}

var _ Store = (*Memory)(nil)
