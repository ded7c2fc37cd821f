package tx

import (
	"github.com/suffix-labs/namada-signer/pkg/masp"
)

// Header holds the two serializations of the transaction header: Raw
// without the fee part and Ext with it.
type Header struct {
	Raw Hex `json:"raw"`
	Ext Hex `json:"ext"`
}

// Sections is the section collection the signer commits to.
type Sections struct {
	// Count is the number of sections in the transaction. A signature
	// section produced for it takes this index.
	Count      uint32
	Code       Section
	Data       Section
	Memo       *Section
	Signatures []PriorSignature
}

// MaspPayload is the shielded part of a transaction: the builder metadata
// and the parsed MASP transaction. The wire bundle that gets verified is
// always derived from Tx, so it covers exactly the bytes that get signed.
type MaspPayload struct {
	Builder *masp.Builder
	Tx      *masp.Transaction
}

// Transaction is a parsed Namada transaction. Raw is the full serialized
// transaction as received from the host.
type Transaction struct {
	Raw      []byte
	Header   Header
	Sections Sections
	Kind     Kind
	Masp     *MaspPayload
}
