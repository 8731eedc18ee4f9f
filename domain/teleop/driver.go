package teleop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/open-teleop/keyboard-teleop/pkg/keyboard"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
)

// ErrStopped is returned by Run when the driver is already running or has
// stopped. A Driver runs at most once.
var ErrStopped = errors.New("driver already stopped")

// Driver runs the keystroke loop: read a key, step the controller, publish
// the command and print the status line. Whatever ends the loop, the driver
// publishes the controller's final zero command exactly once.
type Driver struct {
	controller *Controller
	input      keyboard.Source
	publisher  Publisher
	out        io.Writer
	logger     customlog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewDriver wires a controller to its input source and publisher. Status
// lines are written to out.
func NewDriver(controller *Controller, input keyboard.Source, publisher Publisher, out io.Writer, logger customlog.Logger) *Driver {
	return &Driver{
		controller: controller,
		input:      input,
		publisher:  publisher,
		out:        out,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, the input reports an interrupt or end of
// input, or the publisher reports its transport closed; all of these return
// nil. Any other input failure is returned after the stop command is sent.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped || d.running {
		d.mu.Unlock()
		return ErrStopped
	}
	d.running = true
	d.mu.Unlock()

	defer d.stop()

	for {
		if ctx.Err() != nil {
			d.logger.Infof("Shutdown requested, leaving control loop")
			return nil
		}

		key, err := d.input.ReadKey(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				d.logger.Infof("Shutdown requested, leaving control loop")
				return nil
			case errors.Is(err, keyboard.ErrInterrupted), errors.Is(err, io.EOF):
				d.logger.Infof("Input closed (%v), leaving control loop", err)
				return nil
			default:
				return fmt.Errorf("failed to read key: %w", err)
			}
		}

		cmd := d.controller.Step(key)
		pubErr := d.publisher.Publish(cmd)

		speed, turn := d.controller.Scale()
		fmt.Fprintln(d.out, StatusLine(speed, turn))
		d.logger.Debugf("key=%q linear=(%.3f, %.3f, %.3f) angular_z=%.3f",
			key, cmd.Linear.X, cmd.Linear.Y, cmd.Linear.Z, cmd.Angular.Z)

		if pubErr != nil {
			if isClosed(pubErr) {
				d.logger.Warnf("Velocity transport closed, leaving control loop: %v", pubErr)
				return nil
			}
			d.logger.Warnf("Failed to publish velocity command: %v", pubErr)
		}
	}
}

// Stopped reports whether the final command has been sent.
func (d *Driver) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

func (d *Driver) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.running = false
	d.mu.Unlock()

	if err := d.publisher.Publish(d.controller.FinalCommand()); err != nil {
		d.logger.Errorf("Failed to publish final stop command: %v", err)
		return
	}
	d.logger.Infof("Published final stop command")
}
