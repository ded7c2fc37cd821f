package masp

// SpendInfo is the builder's description of one spent note.
type SpendInfo struct {
	Asset AssetType `json:"asset"`
	Value uint64    `json:"value"`
}

// OutputInfo is the builder's description of one created note.
type OutputInfo struct {
	Asset AssetType `json:"asset"`
	Value uint64    `json:"value"`
}

// ConvertInfo is the builder's description of one applied conversion: the
// allowed asset mix and how many times it is applied.
type ConvertInfo struct {
	Conversion []AssetValue `json:"conversion"`
	Value      uint64       `json:"value"`
}

// Builder is the untrusted host's MASP builder metadata. OutputIndices maps
// each bundle output back to its builder output and randomness item.
type Builder struct {
	Spends        []SpendInfo   `json:"spends"`
	Outputs       []OutputInfo  `json:"outputs"`
	Converts      []ConvertInfo `json:"converts"`
	OutputIndices []uint32      `json:"output_indices"`
}
