package domain

// VectorEntry is a single upsert: record identifier, its vector and the
// original record as metadata.
type VectorEntry struct {
	ID       string
	Vector   Embedding
	Metadata map[string]any
}

// Match is one ranked hit from a similarity query.
type Match struct {
	ID       string         `json:"id"`
	RecordID string         `json:"record_id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}
