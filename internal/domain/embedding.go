package domain

// SparseVector is a keyword-weighted representation returned by hybrid
// embedding providers. Indices and Values have the same length.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// Embedding holds a dense vector and an optional sparse companion.
type Embedding struct {
	Dense  []float32     `json:"dense"`
	Sparse *SparseVector `json:"sparse,omitempty"`
}

// HasSparse reports whether the embedding carries a non-empty sparse vector.
func (e Embedding) HasSparse() bool {
	return e.Sparse != nil && len(e.Sparse.Indices) > 0
}
