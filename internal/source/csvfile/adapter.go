package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timmy/semindex/internal/domain"
	"github.com/timmy/semindex/internal/storage"
)

// Options controls how the CSV header is interpreted.
type Options struct {
	// NormalizeColumn rewrites each header name; nil keeps headers as-is.
	NormalizeColumn func(string) string
}

// Adapter implements the Source interface for a CSV file on disk or in
// object storage.
type Adapter struct {
	path    string
	opts    Options
	objects storage.BucketSelector
	records []domain.Record
	loaded  bool
}

// NewAdapter creates a CSV adapter.
// Parameters:
//   - path: local file path or s3://bucket/key.
//   - objects: object storage used for s3:// paths; may be nil for local files.
//   - opts: header handling options.
// Returns:
//   - *Adapter: adapter that loads the file on first fetch.
func NewAdapter(path string, objects storage.BucketSelector, opts Options) *Adapter {
	return &Adapter{
		path:    path,
		opts:    opts,
		objects: objects,
	}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "csv:" + a.path
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("CSV (%s)", filepath.Base(a.path))
}

// SupportsIncremental returns false: a CSV file is always read in full.
func (a *Adapter) SupportsIncremental() bool {
	return false
}

// FetchBatch returns up to limit records after cursor, a decimal row offset.
// The file is read once on the first call and kept in memory.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.Record, string, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to load %s: %w", a.path, err)
		}
		a.loaded = true
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if limit <= 0 {
		limit = len(a.records)
	}

	if startIndex >= len(a.records) {
		return []domain.Record{}, "", nil
	}

	endIndex := startIndex + limit
	if endIndex > len(a.records) {
		endIndex = len(a.records)
	}

	nextCursor := ""
	if endIndex < len(a.records) {
		nextCursor = strconv.Itoa(endIndex)
	}
	return a.records[startIndex:endIndex], nextCursor, nil
}

func (a *Adapter) open(ctx context.Context) (io.ReadCloser, error) {
	if !storage.IsObjectURI(a.path) {
		return os.Open(a.path)
	}
	if a.objects == nil {
		return nil, errors.New("object storage is not configured")
	}
	bucket, key, err := storage.ParseURI(a.path)
	if err != nil {
		return nil, err
	}
	objects := a.objects.WithBucket(bucket)
	ok, err := objects.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, a.path)
	}
	return objects.Download(ctx, key)
}

func (a *Adapter) load(ctx context.Context) error {
	rc, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	records, err := Read(rc, a.opts)
	if err != nil {
		return err
	}
	a.records = records
	return nil
}

// Read parses a CSV stream with a header row into records. Rows may have
// fewer cells than the header; the missing trailing cells are absent from
// the record.
func Read(r io.Reader, opts Options) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if opts.NormalizeColumn != nil {
			name = opts.NormalizeColumn(name)
		}
		columns[i] = name
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}
		records = append(records, domain.NewRecord(len(records), columns, row))
	}
	return records, nil
}
