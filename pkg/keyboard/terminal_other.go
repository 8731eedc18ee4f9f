//go:build !unix

package keyboard

import (
	"context"
	"os"

	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
)

// TerminalSource is unavailable on this platform; use a ReaderSource.
type TerminalSource struct{}

// NewTerminalSource always fails with ErrNotTerminal on this platform.
func NewTerminalSource(in *os.File, logger customlog.Logger) (*TerminalSource, error) {
	return nil, ErrNotTerminal
}

// ReadKey implements Source. It always returns ErrNotTerminal.
func (s *TerminalSource) ReadKey(ctx context.Context) (rune, error) {
	return 0, ErrNotTerminal
}

// Close is a no-op.
func (s *TerminalSource) Close() error {
	return nil
}
