package teleop

import (
	"github.com/golang/geo/r3"
)

// Direction is the unscaled motion intent set by a movement key.
// Each component is -1, 0 or 1.
type Direction struct {
	LinearX  int `json:"linear_x"`
	LinearY  int `json:"linear_y"`
	LinearZ  int `json:"linear_z"`
	AngularZ int `json:"angular_z"`
}

// VelocityCommand is a six-component spatial velocity: three linear axes and
// three angular axes. Roll and pitch (Angular.X, Angular.Y) are always zero.
type VelocityCommand struct {
	Linear  r3.Vector
	Angular r3.Vector
}

// Scale returns the command for d at the given speed and turn multipliers.
func (d Direction) Scale(speed, turn float64) VelocityCommand {
	return VelocityCommand{
		Linear: r3.Vector{
			X: float64(d.LinearX) * speed,
			Y: float64(d.LinearY) * speed,
			Z: float64(d.LinearZ) * speed,
		},
		Angular: r3.Vector{Z: float64(d.AngularZ) * turn},
	}
}

// IsZero reports whether every component of the command is zero.
func (c VelocityCommand) IsZero() bool {
	return c.Linear == (r3.Vector{}) && c.Angular == (r3.Vector{})
}
