package teleop

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "logging:\tspeed 0.5\tturn 1.0", StatusLine(0.5, 1.0))
	assert.Equal(t, "logging:\tspeed 0.55\tturn 1.1", StatusLine(0.5*1.1, 1.0*1.1))
	assert.Equal(t, "logging:\tspeed 2.0\tturn 10.0", StatusLine(2, 10))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{0.1, "0.1"},
		{-3, "-3.0"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{123456.789, "123456.789"},
		{math.Inf(1), "inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFloat(tt.in))
	}
}

func TestBannerListsKeys(t *testing.T) {
	for _, want := range []string{"q    w    e", "a    s    d", "z    x    c", "t/b", "CTRL-C"} {
		assert.Contains(t, Banner, want)
	}
}
