package tx

// SectionRef is the hash of a section referenced by the transaction data,
// together with that section's index.
type SectionRef struct {
	Index uint32 `json:"index"`
	Hash  Hash   `json:"hash"`
}

// Kind is the declared transaction type. Implementations: Transfer,
// InitAccount, UpdateVP, InitProposal, Other.
type Kind interface {
	// Name is the document tag of the kind.
	Name() string
	kind()
}

// Transfer commits to no extra sections.
type Transfer struct{}

// InitAccount creates an account with the validity predicate VP.
type InitAccount struct {
	VP SectionRef
}

// UpdateVP replaces an account's validity predicate with VP.
type UpdateVP struct {
	VP SectionRef
}

// InitProposal submits a governance proposal. ProposalCode is set for
// proposals that carry wasm code.
type InitProposal struct {
	Content      SectionRef
	ProposalCode *SectionRef
}

// Other is any kind that commits to no extra sections.
type Other struct {
	Type string
}

func (Transfer) Name() string     { return "transfer" }
func (InitAccount) Name() string  { return "init_account" }
func (UpdateVP) Name() string     { return "update_vp" }
func (InitProposal) Name() string { return "init_proposal" }
func (o Other) Name() string      { return o.Type }

func (Transfer) kind()     {}
func (InitAccount) kind()  {}
func (UpdateVP) kind()     {}
func (InitProposal) kind() {}
func (Other) kind()        {}
