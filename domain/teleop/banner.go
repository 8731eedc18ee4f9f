package teleop

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Banner is printed once before the first key is read.
const Banner = `
Control Your Robot!
------------------
Moving around:
   q    w    e
   a    s    d
   z    x    c

w/x : increase/decrease linear velocity
a/d : increase/decrease angular velocity
s : force stop
t/b : increase/decrease speed

CTRL-C to quit
`

// StatusLine is the per-keystroke line written to stdout. Downstream tools
// parse it, so the layout is fixed.
func StatusLine(speed, turn float64) string {
	return fmt.Sprintf("logging:\tspeed %s\tturn %s", formatFloat(speed), formatFloat(turn))
}

// formatFloat renders f as the shortest round-trip decimal, always keeping a
// fractional part ("1.0", "0.55") and switching to exponent form outside
// [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
