package propagation

import "github.com/skywatch/skycore/internal/celestial"

// DefaultRenderScale maps one Earth radius to 10 render units.
const DefaultRenderScale = 10.0

// RenderCoordinates rescales an ECI position (kilometers) into renderer
// units: Earth radii multiplied by scale. The renderer's up axis is +Y, so
// the physical Y and Z axes are swapped; renderers depend on this exact
// permutation.
func RenderCoordinates(pos Position, scale float64) celestial.Cartesian {
	return celestial.Cartesian{
		X: pos.X / earthRadiusKm * scale,
		Y: pos.Z / earthRadiusKm * scale,
		Z: pos.Y / earthRadiusKm * scale,
	}
}
