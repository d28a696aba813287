package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/timmy/semindex/internal/domain"
)

// ErrUnknownDataset is returned by Lookup for names without a profile.
var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset describes how rows of one tabular input become sentences,
// identifiers and metadata.
type Dataset interface {
	// Name returns the dataset identifier used in config and on the CLI.
	Name() string

	// NormalizeColumns reports whether CSV headers are normalized before use.
	NormalizeColumns() bool

	// FillMissing reports whether missing cells are stored as "" in metadata.
	FillMissing() bool

	// Sentence renders the record as embedding input.
	Sentence(rec domain.Record) string

	// RecordID builds the upsert identifier for the record.
	RecordID(rec domain.Record) string
}

var registry = map[string]Dataset{}

func register(d Dataset) {
	registry[d.Name()] = d
}

func init() {
	register(Phones{})
	register(Movies{})
}

// Lookup returns the dataset profile registered under name.
func Lookup(name string) (Dataset, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return d, nil
}

// Names lists registered dataset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sentences renders every record in order.
func Sentences(d Dataset, records []domain.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = d.Sentence(rec)
	}
	return out
}
