//go:build unix

package keyboard

import (
	"context"
	"fmt"
	"io"
	"os"

	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollTimeoutMs bounds how long a blocked read waits before checking the
// context again.
const pollTimeoutMs = 100

// TerminalSource reads keys from a controlling terminal.
// ReadKey is not safe for concurrent use.
type TerminalSource struct {
	fd     int
	saved  *term.State
	logger customlog.Logger

	// pending holds a byte read past a broken UTF-8 sequence.
	pending    byte
	hasPending bool
}

// NewTerminalSource checks that in is a terminal that can be switched to raw
// mode and records its current mode so Close can restore it.
func NewTerminalSource(in *os.File, logger customlog.Logger) (*TerminalSource, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s: %w", in.Name(), ErrNotTerminal)
	}

	saved, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read terminal state: %w", err)
	}

	// Probe raw mode once so a terminal that refuses it fails at startup.
	if _, err := term.MakeRaw(fd); err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	if err := term.Restore(fd, saved); err != nil {
		return nil, fmt.Errorf("failed to restore terminal mode: %w", err)
	}

	return &TerminalSource{fd: fd, saved: saved, logger: logger}, nil
}

// ReadKey implements Source. The terminal is raw only while waiting for the
// key, so anything printed between reads uses normal line discipline.
func (s *TerminalSource) ReadKey(ctx context.Context) (rune, error) {
	prev, err := term.MakeRaw(s.fd)
	if err != nil {
		return 0, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(s.fd, prev); err != nil {
			s.logger.Errorf("Failed to restore terminal mode: %v", err)
		}
	}()

	first, err := s.nextByte(ctx)
	if err != nil {
		return 0, err
	}
	return decodeKey(first, func() (byte, error) { return s.nextByte(ctx) }, s.unread)
}

func (s *TerminalSource) nextByte(ctx context.Context) (byte, error) {
	if s.hasPending {
		s.hasPending = false
		return s.pending, nil
	}
	return s.readByte(ctx)
}

func (s *TerminalSource) unread(b byte) {
	s.pending, s.hasPending = b, true
}

// Close restores the mode the terminal had when the source was created.
func (s *TerminalSource) Close() error {
	if err := term.Restore(s.fd, s.saved); err != nil {
		return fmt.Errorf("failed to restore terminal mode: %w", err)
	}
	return nil
}

func (s *TerminalSource) readByte(ctx context.Context) (byte, error) {
	var buf [1]byte
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("failed to poll terminal: %w", err)
		}
		if n == 0 {
			continue
		}

		rn, err := unix.Read(s.fd, buf[:])
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return 0, fmt.Errorf("failed to read terminal: %w", err)
		}
		if rn == 0 {
			return 0, io.EOF
		}
		return buf[0], nil
	}
}
