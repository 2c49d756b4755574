package propagation

import (
	"math"
	"testing"
)

func TestRenderCoordinatesAxisSwap(t *testing.T) {
	pos := Position{X: 6371, Y: 1000, Z: -2000}
	c := RenderCoordinates(pos, DefaultRenderScale)

	if math.Abs(c.X-10) > 1e-12 {
		t.Errorf("X = %v, want 10 (one Earth radius at scale 10)", c.X)
	}
	// The render frame's up axis is +Y, so physical Y and Z swap.
	if math.Abs(c.Y-(-2000.0/6371*10)) > 1e-12 {
		t.Errorf("Y = %v, want physical Z scaled", c.Y)
	}
	if math.Abs(c.Z-(1000.0/6371*10)) > 1e-12 {
		t.Errorf("Z = %v, want physical Y scaled", c.Z)
	}
}

func TestRenderCoordinatesScaleLinearity(t *testing.T) {
	pos := Position{X: 4000, Y: -3000, Z: 5000}

	c10 := RenderCoordinates(pos, 10)
	c20 := RenderCoordinates(pos, 20)

	if math.Abs(c20.X-2*c10.X) > 1e-12 ||
		math.Abs(c20.Y-2*c10.Y) > 1e-12 ||
		math.Abs(c20.Z-2*c10.Z) > 1e-12 {
		t.Errorf("doubling scale did not double coordinates: %+v vs %+v", c10, c20)
	}
}
