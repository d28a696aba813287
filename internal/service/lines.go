package service

import (
	"bufio"
	"context"
	"io"
)

// MaxLineSize bounds a single line of operator input.
const MaxLineSize = 1 << 20

type lineResult struct {
	text string
	err  error
}

// lineReader reads lines on a background goroutine so a caller can stop
// waiting when its context is cancelled. A read that was abandoned is handed
// to the next call rather than lost.
type lineReader struct {
	scanner *bufio.Scanner
	want    chan struct{}
	lines   chan lineResult
	pending bool
	started bool
	err     error
}

func newLineReader(in io.Reader) *lineReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &lineReader{
		scanner: scanner,
		want:    make(chan struct{}),
		lines:   make(chan lineResult, 1),
	}
}

func (r *lineReader) loop() {
	for range r.want {
		if r.scanner.Scan() {
			r.lines <- lineResult{text: r.scanner.Text()}
			continue
		}
		err := r.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		r.lines <- lineResult{err: err}
		return
	}
}

// next returns the next line, io.EOF at end of input, or ctx.Err() if ctx is
// done first.
func (r *lineReader) next(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if !r.started {
		r.started = true
		go r.loop()
	}
	if !r.pending {
		select {
		case r.want <- struct{}{}:
			r.pending = true
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	select {
	case res := <-r.lines:
		r.pending = false
		r.err = res.err
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
