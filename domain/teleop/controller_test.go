package teleop

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func newDefaultController() *Controller {
	return NewController(DefaultBindings(), DefaultSpeed, DefaultTurn)
}

func assertCommand(t *testing.T, want, got VelocityCommand) {
	t.Helper()
	assert.InDelta(t, want.Linear.X, got.Linear.X, tolerance, "linear.x")
	assert.InDelta(t, want.Linear.Y, got.Linear.Y, tolerance, "linear.y")
	assert.InDelta(t, want.Linear.Z, got.Linear.Z, tolerance, "linear.z")
	assert.InDelta(t, want.Angular.X, got.Angular.X, tolerance, "angular.x")
	assert.InDelta(t, want.Angular.Y, got.Angular.Y, tolerance, "angular.y")
	assert.InDelta(t, want.Angular.Z, got.Angular.Z, tolerance, "angular.z")
}

func TestMovementKeys(t *testing.T) {
	tests := []struct {
		key      rune
		linearX  float64
		angularZ float64
	}{
		{'w', 0.5, 0},
		{'x', -0.5, 0},
		{'a', 0, 1},
		{'d', 0, -1},
		{'q', 0.5, 1},
		{'e', 0.5, -1},
		{'z', -0.5, -1},
		{'c', -0.5, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			c := newDefaultController()
			got := c.Step(tt.key)
			assertCommand(t, VelocityCommand{
				Linear:  r3.Vector{X: tt.linearX},
				Angular: r3.Vector{Z: tt.angularZ},
			}, got)
		})
	}
}

func TestScaleCompounding(t *testing.T) {
	c := newDefaultController()

	for i := 0; i < 3; i++ {
		c.Step('t')
	}
	speed, turn := c.Scale()
	assert.InDelta(t, 0.5*math.Pow(1.1, 3), speed, tolerance)
	assert.InDelta(t, 0.6655, speed, tolerance)
	assert.InDelta(t, math.Pow(1.1, 3), turn, tolerance)

	c.Step('b')
	speed, turn = c.Scale()
	assert.InDelta(t, 0.6655*0.9, speed, tolerance)
	assert.InDelta(t, 1.331*0.9, turn, tolerance)
}

func TestDirectionSurvivesScaleKeys(t *testing.T) {
	keys := []rune{'t', 'b', 't', 't', 'b', 'b', 'b'}
	for _, dirKey := range []rune{'w', 'x', 'a', 'd', 'q', 'e', 'z', 'c'} {
		c := newDefaultController()
		c.Step(dirKey)
		dir, _ := DefaultBindings().Movement(dirKey)

		factor := 1.0
		var got VelocityCommand
		for _, k := range keys {
			f, _ := DefaultBindings().Scaling(k)
			factor *= f.Speed
			got = c.Step(k)
		}

		assertCommand(t, dir.Scale(DefaultSpeed*factor, DefaultTurn*factor), got)
		assert.Equal(t, dir, c.Snapshot().Direction)
	}
}

func TestUnrecognizedKeysAreNoOps(t *testing.T) {
	c := newDefaultController()
	c.Step('e')
	c.Step('t')
	before := c.Snapshot()

	for _, k := range []rune{'s', 'S', 'W', ' ', '\r', '\n', 0x1b, 0x00, 0x7f, 'é', '1', '?'} {
		for i := 0; i < 3; i++ {
			got := c.Step(k)
			assertCommand(t, before.LastCommand, got)
		}
	}

	after := c.Snapshot()
	assert.Equal(t, before.Direction, after.Direction)
	assert.Equal(t, before.Speed, after.Speed)
	assert.Equal(t, before.Turn, after.Turn)
}

func TestFinalCommandIsZero(t *testing.T) {
	c := newDefaultController()
	c.Step('w')
	c.Step('t')

	final := c.FinalCommand()
	assert.True(t, final.IsZero())
	// the controller keeps its state; only the published command is zero
	assert.Equal(t, Direction{LinearX: 1}, c.Snapshot().Direction)
}

func TestScenarioQTS(t *testing.T) {
	c := newDefaultController()

	got := c.Step('q')
	assertCommand(t, VelocityCommand{Linear: r3.Vector{X: 0.5}, Angular: r3.Vector{Z: 1.0}}, got)

	got = c.Step('t')
	assertCommand(t, VelocityCommand{Linear: r3.Vector{X: 0.55}, Angular: r3.Vector{Z: 1.1}}, got)

	prev := got
	got = c.Step('s')
	assert.Equal(t, prev, got)

	assert.True(t, c.FinalCommand().IsZero())
}

func TestForceStopBinding(t *testing.T) {
	c := NewController(DefaultBindings().WithForceStop(), DefaultSpeed, DefaultTurn)
	c.Step('w')
	got := c.Step('s')
	assert.True(t, got.IsZero())

	// the default table is not modified by WithForceStop
	_, ok := DefaultBindings().Movement('s')
	assert.False(t, ok)
}

func TestSnapshotCountsSteps(t *testing.T) {
	c := NewController(DefaultBindings(), 2, 3)
	c.Step('a')
	c.Step('?')

	s := c.Snapshot()
	require.Equal(t, uint64(2), s.Steps)
	assert.Equal(t, 2.0, s.Speed)
	assert.Equal(t, 3.0, s.Turn)
	assertCommand(t, VelocityCommand{Angular: r3.Vector{Z: 3}}, s.LastCommand)
}
