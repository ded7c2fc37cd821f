package tx

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/masp"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
)

// document is the JSON form of a parsed transaction.
type document struct {
	Raw          Hex        `json:"raw,omitempty"`
	Header       Header     `json:"header"`
	SectionCount uint32     `json:"section_count"`
	Code         Section    `json:"code"`
	Data         Section    `json:"data"`
	Memo         *Section   `json:"memo,omitempty"`
	Signatures   []priorDoc `json:"signatures,omitempty"`
	Kind         kindDoc    `json:"kind"`
	Masp         *maspDoc   `json:"masp,omitempty"`
}

type priorDoc struct {
	Index      uint32   `json:"index"`
	Salt       Hash     `json:"salt"`
	Hashes     []Hash   `json:"hashes"`
	PubKeys    []keyDoc `json:"pubkeys,omitempty"`
	Address    Hex      `json:"address,omitempty"`
	Signatures []sigDoc `json:"signatures,omitempty"`
}

type keyDoc struct {
	Kind KeyKind `json:"kind"`
	Key  Hex     `json:"key"`
}

type sigDoc struct {
	Index uint8   `json:"index"`
	Kind  KeyKind `json:"kind"`
	Sig   Hex     `json:"sig"`
}

type kindDoc struct {
	Type         string      `json:"type"`
	VP           *SectionRef `json:"vp,omitempty"`
	Content      *SectionRef `json:"content,omitempty"`
	ProposalCode *SectionRef `json:"proposal_code,omitempty"`
}

type maspDoc struct {
	Builder masp.Builder `json:"builder"`
	Tx      Hex          `json:"tx"`
}

// LoadFile reads a transaction document from path.
func LoadFile(path string) (*Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open transaction %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a transaction document. Unknown fields are rejected.
func Load(r io.Reader) (*Transaction, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "decode transaction: %v", err)
	}
	return doc.transaction()
}

func (d *document) transaction() (*Transaction, error) {
	t := &Transaction{
		Raw:    d.Raw,
		Header: d.Header,
		Sections: Sections{
			Count: d.SectionCount,
			Code:  d.Code,
			Data:  d.Data,
			Memo:  d.Memo,
		},
	}

	for i, p := range d.Signatures {
		sec, err := p.section()
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		t.Sections.Signatures = append(t.Sections.Signatures, PriorSignature{Index: p.Index, Section: sec})
	}

	kind, err := d.Kind.kind()
	if err != nil {
		return nil, err
	}
	t.Kind = kind

	if d.Masp != nil {
		mtx, err := masp.ParseTransaction(d.Masp.Tx)
		if err != nil {
			return nil, err
		}
		builder := d.Masp.Builder
		t.Masp = &MaspPayload{Builder: &builder, Tx: mtx}
	}
	return t, nil
}

func (p *priorDoc) section() (SignatureSection, error) {
	sec := SignatureSection{Salt: p.Salt}
	for _, h := range p.Hashes {
		sec.Hashes = append(sec.Hashes, h)
	}
	switch {
	case p.Address != nil && len(p.PubKeys) > 0:
		return sec, errors.Wrap(txerr.ErrInvalidSettings, "signer has both address and keys")
	case p.Address != nil:
		sec.Signer = AddressSigner{Address: p.Address}
	default:
		keys := PubKeys{}
		for _, k := range p.PubKeys {
			keys.Keys = append(keys.Keys, PublicKey{Kind: k.Kind, Key: k.Key})
		}
		sec.Signer = keys
	}
	for _, s := range p.Signatures {
		sec.Signatures = append(sec.Signatures, IndexedSignature{Index: s.Index, Kind: s.Kind, Sig: s.Sig})
	}
	return sec, nil
}

func (k *kindDoc) kind() (Kind, error) {
	needVP := func() (SectionRef, error) {
		if k.VP == nil {
			return SectionRef{}, errors.Wrapf(txerr.ErrNoData, "%s without vp", k.Type)
		}
		return *k.VP, nil
	}

	switch k.Type {
	case "":
		return nil, errors.Wrap(txerr.ErrNoData, "transaction kind")
	case Transfer{}.Name():
		return Transfer{}, nil
	case InitAccount{}.Name():
		vp, err := needVP()
		return InitAccount{VP: vp}, err
	case UpdateVP{}.Name():
		vp, err := needVP()
		return UpdateVP{VP: vp}, err
	case InitProposal{}.Name():
		if k.Content == nil {
			return nil, errors.Wrap(txerr.ErrNoData, "init_proposal without content")
		}
		return InitProposal{Content: *k.Content, ProposalCode: k.ProposalCode}, nil
	default:
		return Other{Type: k.Type}, nil
	}
}

// Encode writes t as a transaction document. It is the inverse of Load.
func Encode(t *Transaction) ([]byte, error) {
	doc := document{
		Raw:          t.Raw,
		Header:       t.Header,
		SectionCount: t.Sections.Count,
		Code:         t.Sections.Code,
		Data:         t.Sections.Data,
		Memo:         t.Sections.Memo,
	}

	for _, p := range t.Sections.Signatures {
		pd := priorDoc{Index: p.Index, Salt: p.Section.Salt}
		for _, h := range p.Section.Hashes {
			pd.Hashes = append(pd.Hashes, h)
		}
		switch s := p.Section.Signer.(type) {
		case AddressSigner:
			pd.Address = s.Address
		case PubKeys:
			for _, k := range s.Keys {
				pd.PubKeys = append(pd.PubKeys, keyDoc{Kind: k.Kind, Key: k.Key})
			}
		case nil:
		default:
			return nil, errors.Wrapf(txerr.ErrInvalidSettings, "signer %T", s)
		}
		for _, s := range p.Section.Signatures {
			pd.Signatures = append(pd.Signatures, sigDoc{Index: s.Index, Kind: s.Kind, Sig: s.Sig})
		}
		doc.Signatures = append(doc.Signatures, pd)
	}

	switch k := t.Kind.(type) {
	case Transfer:
		doc.Kind = kindDoc{Type: k.Name()}
	case InitAccount:
		doc.Kind = kindDoc{Type: k.Name(), VP: &k.VP}
	case UpdateVP:
		doc.Kind = kindDoc{Type: k.Name(), VP: &k.VP}
	case InitProposal:
		doc.Kind = kindDoc{Type: k.Name(), Content: &k.Content, ProposalCode: k.ProposalCode}
	case Other:
		doc.Kind = kindDoc{Type: k.Name()}
	default:
		return nil, errors.Wrapf(txerr.ErrInvalidSettings, "transaction kind %T", k)
	}

	if t.Masp != nil {
		if t.Masp.Builder == nil || t.Masp.Tx == nil {
			return nil, errors.Wrap(txerr.ErrNoData, "masp payload")
		}
		doc.Masp = &maspDoc{Builder: *t.Masp.Builder, Tx: masp.SerializeTransaction(t.Masp.Tx)}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return nil, errors.Wrap(txerr.ErrEncodingFailed, err.Error())
	}
	return buf.Bytes(), nil
}
