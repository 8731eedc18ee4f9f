package teleop

// ScaleFactors multiply the speed and turn multipliers.
type ScaleFactors struct {
	Speed float64
	Turn  float64
}

// Bindings maps keys to movement directions and scale factors. A Bindings
// value is never modified after construction; WithForceStop returns a copy.
type Bindings struct {
	move  map[rune]Direction
	scale map[rune]ScaleFactors
}

// DefaultBindings returns the 3x3 keypad layout:
//
//	q w e
//	a s d
//	z x c
//
// plus t/b to grow or shrink speed and turn by 10%. The s key is unbound.
func DefaultBindings() Bindings {
	return Bindings{
		move: map[rune]Direction{
			'w': {LinearX: 1},
			'e': {LinearX: 1, AngularZ: -1},
			'a': {AngularZ: 1},
			'd': {AngularZ: -1},
			'q': {LinearX: 1, AngularZ: 1},
			'x': {LinearX: -1},
			'c': {LinearX: -1, AngularZ: 1},
			'z': {LinearX: -1, AngularZ: -1},
		},
		scale: map[rune]ScaleFactors{
			't': {Speed: 1.1, Turn: 1.1},
			'b': {Speed: 0.9, Turn: 0.9},
		},
	}
}

// WithForceStop returns a copy of b where s sets the zero direction.
func (b Bindings) WithForceStop() Bindings {
	move := make(map[rune]Direction, len(b.move)+1)
	for k, v := range b.move {
		move[k] = v
	}
	move['s'] = Direction{}
	return Bindings{move: move, scale: b.scale}
}

// Movement returns the direction bound to key.
func (b Bindings) Movement(key rune) (Direction, bool) {
	d, ok := b.move[key]
	return d, ok
}

// Scaling returns the scale factors bound to key.
func (b Bindings) Scaling(key rune) (ScaleFactors, bool) {
	f, ok := b.scale[key]
	return f, ok
}
