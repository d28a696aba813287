package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAborted is returned when a run stops on an exhausted or cancelled
// embedding step.
var ErrAborted = errors.New("ingest aborted")

// ContinuationPolicy decides what to do with a partial embedding result.
type ContinuationPolicy string

const (
	// PolicyPrompt asks the operator.
	PolicyPrompt ContinuationPolicy = "prompt"
	// PolicyContinue accepts partial results without asking.
	PolicyContinue ContinuationPolicy = "continue"
	// PolicyAbort stops without asking.
	PolicyAbort ContinuationPolicy = "abort"
)

// ParseContinuationPolicy validates a policy name. Empty means prompt.
func ParseContinuationPolicy(s string) (ContinuationPolicy, error) {
	switch p := ContinuationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyPrompt, nil
	case PolicyPrompt, PolicyContinue, PolicyAbort:
		return p, nil
	default:
		return "", fmt.Errorf("unknown continuation policy %q (want prompt, continue or abort)", s)
	}
}

// Confirmer asks a yes/no question. It returns ctx.Err() if ctx is done
// before an answer arrives.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PromptConfirmer asks on a terminal. Only "y" (any case) is a yes; EOF is
// a no.
type PromptConfirmer struct {
	lines *lineReader
	out   io.Writer
}

// NewPromptConfirmer creates a confirmer reading answers from in.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{lines: newLineReader(in), out: out}
}

// Confirm writes question and reads one line.
func (c *PromptConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(c.out, question); err != nil {
		return false, err
	}
	line, err := c.lines.next(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// Decide applies policy to res. It returns nil when the run may go on with
// res.Embeddings and ErrAborted otherwise.
func Decide(ctx context.Context, res EmbedResult, policy ContinuationPolicy, confirmer Confirmer) error {
	switch res.Status {
	case EmbedComplete:
		return nil
	case EmbedAborted:
		return fmt.Errorf("%w: %v", ErrAborted, res.Err)
	}

	switch policy {
	case PolicyContinue:
		return nil
	case PolicyAbort:
		return fmt.Errorf("%w: %v", ErrAborted, res.Err)
	}

	if confirmer == nil {
		return fmt.Errorf("%w: no operator to confirm partial results: %v", ErrAborted, res.Err)
	}
	question := fmt.Sprintf(
		"Max retries reached (%d/%d embedded). Continue with embeddings collected so far? (y/n): ",
		len(res.Embeddings), res.Total)
	ok, err := confirmer.Confirm(ctx, question)
	if err != nil {
		return fmt.Errorf("%w: confirmation failed: %v", ErrAborted, err)
	}
	if !ok {
		return fmt.Errorf("%w: operator declined partial results", ErrAborted)
	}
	return nil
}
