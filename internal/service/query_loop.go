package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/timmy/semindex/internal/domain"
)

// QueryPrompt is printed before each line of input.
const QueryPrompt = "Enter your search (or 'exit'): "

// Searcher runs one top-k query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.Match, error)
}

// QueryLoop is an interactive read-search-print loop. Iterations share no
// state.
type QueryLoop struct {
	searcher Searcher
	topK     int
}

// NewQueryLoop creates a loop issuing topK queries through searcher.
func NewQueryLoop(searcher Searcher, topK int) *QueryLoop {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QueryLoop{searcher: searcher, topK: topK}
}

// Run reads queries from in until "exit" (any case, surrounding space
// ignored), EOF or ctx cancellation. Cancellation stops a pending read at
// once and returns ctx.Err(). A failed search is reported on out and the
// loop continues.
func (l *QueryLoop) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := newLineReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, QueryPrompt)
		query, err := lines.next(ctx)
		if err != nil {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if strings.EqualFold(strings.TrimSpace(query), "exit") {
			return nil
		}

		matches, err := l.searcher.Search(ctx, query, l.topK)
		if err != nil {
			fmt.Fprintf(out, "Search failed: %v\n", err)
			continue
		}

		fmt.Fprintln(out, "\nTop Matches:")
		for _, m := range matches {
			fmt.Fprint(out, FormatMatch(m))
		}
	}
}
