package teleop

import (
	"errors"

	"go.uber.org/multierr"
)

// ErrPublisherClosed is returned by a Publisher whose transport has shut down.
// The driver treats it as a shutdown request.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher sends a velocity command on the cmd_vel channel. Delivery is
// fire-and-forget: a returned error is never retried.
type Publisher interface {
	Publish(cmd VelocityCommand) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(cmd VelocityCommand) error

// Publish calls f(cmd).
func (f PublisherFunc) Publish(cmd VelocityCommand) error {
	return f(cmd)
}

// FanOut publishes every command to each publisher in order. All publishers
// are attempted; their errors are combined.
type FanOut []Publisher

// Publish implements Publisher.
func (f FanOut) Publish(cmd VelocityCommand) error {
	var err error
	for _, p := range f {
		err = multierr.Append(err, p.Publish(cmd))
	}
	return err
}

// isClosed reports whether any error combined in err is ErrPublisherClosed.
func isClosed(err error) bool {
	for _, e := range multierr.Errors(err) {
		if errors.Is(e, ErrPublisherClosed) {
			return true
		}
	}
	return false
}
