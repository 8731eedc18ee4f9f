package teleop

import (
	"sync"
)

// Default scale multipliers used when configuration does not provide them.
const (
	DefaultSpeed = 0.5
	DefaultTurn  = 1.0
)

// State is a point-in-time copy of the controller.
type State struct {
	Direction   Direction       `json:"direction"`
	Speed       float64         `json:"speed"`
	Turn        float64         `json:"turn"`
	LastCommand VelocityCommand `json:"-"`
	Steps       uint64          `json:"steps"`
}

// Controller turns keystrokes into velocity commands. It owns the current
// direction and the speed/turn multipliers for the lifetime of the process.
type Controller struct {
	bindings Bindings

	mu        sync.RWMutex
	direction Direction
	speed     float64
	turn      float64
	last      VelocityCommand
	steps     uint64
}

// NewController creates a controller with a zero direction.
func NewController(bindings Bindings, speed, turn float64) *Controller {
	return &Controller{
		bindings: bindings,
		speed:    speed,
		turn:     turn,
	}
}

// Step applies key and returns the command to publish. Keys without a
// binding leave the state untouched and return the current command again.
func (c *Controller) Step(key rune) VelocityCommand {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir, ok := c.bindings.Movement(key); ok {
		c.direction = dir
	} else if f, ok := c.bindings.Scaling(key); ok {
		c.speed *= f.Speed
		c.turn *= f.Turn
	}

	c.last = c.direction.Scale(c.speed, c.turn)
	c.steps++
	return c.last
}

// FinalCommand returns the all-zero command published at shutdown.
func (c *Controller) FinalCommand() VelocityCommand {
	return VelocityCommand{}
}

// Scale returns the current speed and turn multipliers.
func (c *Controller) Scale() (speed, turn float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speed, c.turn
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Direction:   c.direction,
		Speed:       c.speed,
		Turn:        c.turn,
		LastCommand: c.last,
		Steps:       c.steps,
	}
}
