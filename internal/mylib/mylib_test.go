package mylib

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorAdd(t *testing.T) {
	var calc Calculator

	tests := []struct {
		name string
		a, b int
		want int
	}{
		{"fixture", 1, 2, 3},
		{"zero", 0, 0, 0},
		{"negative", -5, 3, -2},
		{"both negative", -7, -8, -15},
		{"wraps at max", math.MaxInt, 1, math.MinInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Add(tt.a, tt.b))
		})
	}
}

func TestCalculatorAddCommutative(t *testing.T) {
	var calc Calculator
	commutes := func(a, b int) bool {
		return calc.Add(a, b) == calc.Add(b, a)
	}
	require.NoError(t, quick.Check(commutes, nil))
}

func TestCalculatorAddMatchesSum(t *testing.T) {
	var calc Calculator
	exact := func(a, b int32) bool {
		return calc.Add(int(a), int(b)) == int(int64(a)+int64(b))
	}
	require.NoError(t, quick.Check(exact, nil))
}

func TestVectorFields(t *testing.T) {
	roundTrip := func(x, y, z float32) bool {
		v := Vector{X: x, Y: y, Z: z}
		return sameFloat(v.X, x) && sameFloat(v.Y, y) && sameFloat(v.Z, z)
	}
	require.NoError(t, quick.Check(roundTrip, nil))

	v := Vector{X: 1.5, Y: -2, Z: 0}
	assert.Equal(t, float32(1.5), v.X)
	assert.Equal(t, float32(-2), v.Y)
	assert.Equal(t, float32(0), v.Z)
}

// NaN never equals itself, so compare bit patterns.
func sameFloat(a, b float32) bool {
	return math.Float32bits(a) == math.Float32bits(b)
}
