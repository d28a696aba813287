package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/semindex/internal/domain"
)

func partialResult() EmbedResult {
	return EmbedResult{
		Status:     EmbedPartial,
		Embeddings: make([]domain.Embedding, 50),
		Missing:    Span{Start: 50, End: 120},
		Total:      120,
		Err:        errProviderDown,
	}
}

func TestParseContinuationPolicy(t *testing.T) {
	p, err := ParseContinuationPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPrompt, p)

	p, err = ParseContinuationPolicy(" Continue ")
	require.NoError(t, err)
	assert.Equal(t, PolicyContinue, p)

	_, err = ParseContinuationPolicy("maybe")
	assert.Error(t, err)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Y\n", want: true},
		{input: "  y  \n", want: true},
		{input: "yes\n", want: false},
		{input: "n\n", want: false},
		{input: "", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := NewPromptConfirmer(strings.NewReader(tt.input), &out).Confirm(context.Background(), "Continue? ")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Continue? ", out.String())
	}
}

func TestPromptConfirmer_CancelWhileWaiting(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	var out bytes.Buffer
	c := NewPromptConfirmer(r, &out)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := c.Confirm(ctx, "Continue? ")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm did not return after cancel")
	}
}

func TestDecide_CancelledPromptAborts(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Decide(ctx, partialResult(), PolicyPrompt, NewPromptConfirmer(r, io.Discard))
	assert.ErrorIs(t, err, ErrAborted)
}

func TestDecide_CompleteNeedsNoAnswer(t *testing.T) {
	c := &fakeConfirmer{}
	assert.NoError(t, Decide(context.Background(), EmbedResult{Status: EmbedComplete}, PolicyPrompt, c))
	assert.Empty(t, c.questions)
}

func TestDecide_PromptShowsProgress(t *testing.T) {
	c := &fakeConfirmer{answer: true}
	require.NoError(t, Decide(context.Background(), partialResult(), PolicyPrompt, c))
	require.Len(t, c.questions, 1)
	assert.Contains(t, c.questions[0], "(50/120 embedded)")
}

func TestDecide_DeclinedAborts(t *testing.T) {
	err := Decide(context.Background(), partialResult(), PolicyPrompt, &fakeConfirmer{answer: false})
	assert.ErrorIs(t, err, ErrAborted)
}

func TestDecide_Policies(t *testing.T) {
	c := &fakeConfirmer{}
	assert.NoError(t, Decide(context.Background(), partialResult(), PolicyContinue, c))
	assert.ErrorIs(t, Decide(context.Background(), partialResult(), PolicyAbort, c), ErrAborted)
	assert.ErrorIs(t, Decide(context.Background(), partialResult(), PolicyPrompt, nil), ErrAborted)
	assert.Empty(t, c.questions)

	assert.ErrorIs(t, Decide(context.Background(), EmbedResult{Status: EmbedAborted}, PolicyContinue, c), ErrAborted)
}
