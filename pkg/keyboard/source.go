// Package keyboard supplies single keystrokes to the teleop loop.
//
// A Source returns one key per call and blocks until a key arrives or the
// context is cancelled. The terminal implementation switches stdin to raw,
// no-echo mode only for the duration of each read.
package keyboard

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// Control bytes that end a session when the terminal is in raw mode and the
// kernel no longer turns them into signals.
const (
	keyInterrupt = 0x03 // Ctrl-C
	keyEOF       = 0x04 // Ctrl-D
)

var (
	// ErrInterrupted is returned when the user types Ctrl-C.
	ErrInterrupted = errors.New("keyboard interrupt")
	// ErrNotTerminal is returned when raw mode is requested on a non-terminal.
	ErrNotTerminal = errors.New("input is not a terminal")
)

// Source supplies keys one at a time.
type Source interface {
	// ReadKey blocks until a key is available. It returns ctx.Err() when the
	// context ends first, ErrInterrupted for Ctrl-C and io.EOF when input is
	// exhausted.
	ReadKey(ctx context.Context) (rune, error)
}

// classify maps session-ending control keys to their errors.
func classify(r rune) (rune, error) {
	switch r {
	case keyInterrupt:
		return 0, ErrInterrupted
	case keyEOF:
		return 0, io.EOF
	}
	return r, nil
}

// ChanSource reads keys from a channel. A closed channel reads as io.EOF.
type ChanSource <-chan rune

// ReadKey implements Source.
func (c ChanSource) ReadKey(ctx context.Context) (rune, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r, ok := <-c:
		if !ok {
			return 0, io.EOF
		}
		return classify(r)
	}
}

type keyResult struct {
	key rune
	err error
}

// ReaderSource decodes UTF-8 keys from a plain reader such as a pipe. Reads
// happen on a background goroutine so a cancelled context returns promptly
// even while the reader blocks.
type ReaderSource struct {
	r    *bufio.Reader
	once sync.Once
	keys chan keyResult

	closeOnce sync.Once
	done      chan struct{}
	exited    chan struct{}
}

// NewReaderSource wraps r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{
		r:      bufio.NewReader(r),
		keys:   make(chan keyResult),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// ReadKey implements Source. After Close it returns io.EOF.
func (s *ReaderSource) ReadKey(ctx context.Context) (rune, error) {
	s.once.Do(func() { go s.readLoop() })

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.done:
		return 0, io.EOF
	case res, ok := <-s.keys:
		if !ok {
			return 0, io.EOF
		}
		if res.err != nil {
			return 0, res.err
		}
		return classify(res.key)
	}
}

// Close releases the reading goroutine. A goroutine blocked inside the
// underlying reader exits once that read returns.
func (s *ReaderSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *ReaderSource) readLoop() {
	defer close(s.exited)
	defer close(s.keys)
	for {
		r, _, err := s.r.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.send(keyResult{err: err})
			}
			return
		}
		if !s.send(keyResult{key: r}) {
			return
		}
	}
}

func (s *ReaderSource) send(res keyResult) bool {
	select {
	case s.keys <- res:
		return true
	case <-s.done:
		return false
	}
}
