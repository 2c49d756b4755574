// Package propagation computes satellite positions from parsed orbital
// elements using simplified two-body Kepler propagation.
//
// This is deliberately not full SGP4: no atmospheric drag, no J2 secular
// perturbations, no deep-space resonance terms. For a sky-visualization
// core refreshed from daily element sets, the two-body solution keeps the
// math small and fast; cmd/skydiag cross-checks it against a reference
// SGP4 implementation.
package propagation

import (
	"math"
	"time"

	"github.com/skywatch/skycore/internal/tle"
)

const (
	// mu is Earth's standard gravitational parameter, km³/s².
	mu = 398600.4418

	// earthRadiusKm is the mean Earth radius used for altitude and render scaling.
	earthRadiusKm = 6371.0

	twoPi = 2 * math.Pi
	deg   = math.Pi / 180.0
)

// Propagate computes the satellite position at the given time.
//
// Degenerate elements (eccentricity outside [0,1)) and NaN results from
// near-singular geometry are mapped to safe defaults instead of errors:
// catalog data occasionally carries malformed entries and batch callers
// must keep processing siblings. The returned Position is always
// structurally valid.
func Propagate(el *tle.OrbitalElements, at time.Time) Position {
	pos := Position{
		Name:      el.Name,
		CatalogID: el.CatalogID,
	}

	// Degenerate-orbit guard: never run the Kepler solver on a non-elliptical
	// eccentricity. The sentinel pins the satellite to the Earth's surface.
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		pos.AltitudeKm = earthRadiusKm
		return pos
	}

	minutes := float64(at.UnixMilli()-el.Epoch.UnixMilli()) / 60000.0
	nRadPerMin := el.MeanMotion * twoPi / 1440.0

	e := el.Eccentricity
	m := math.Mod(el.MeanAnomalyDeg*deg+nRadPerMin*minutes, twoPi)

	ecc := solveKepler(m, e)

	// True anomaly via the half-angle form, stable for all quadrants.
	nu := 2 * math.Atan2(
		math.Sqrt(1+e)*math.Sin(ecc/2),
		math.Sqrt(1-e)*math.Cos(ecc/2),
	)

	// Semi-major axis recovered from the mean motion (Kepler's third law).
	nRadPerSec := el.MeanMotion * twoPi / 86400.0
	a := math.Cbrt(mu / (nRadPerSec * nRadPerSec))

	r := a * (1 - e*e) / (1 + e*math.Cos(nu))
	xOrb := r * math.Cos(nu)
	yOrb := r * math.Sin(nu)

	// Perifocal → ECI via the 3-1-3 rotation (argument of perigee, then
	// inclination, then RAAN). The z-component depends only on the argument
	// of perigee and inclination; the final Z-axis rotation cannot move it.
	sinI, cosI := math.Sincos(el.InclinationDeg * deg)
	sinO, cosO := math.Sincos(el.RAANDeg * deg)
	sinW, cosW := math.Sincos(el.ArgPerigeeDeg * deg)

	pos.X = xOrb*(cosO*cosW-sinO*sinW*cosI) - yOrb*(cosO*sinW+sinO*cosW*cosI)
	pos.Y = xOrb*(sinO*cosW+cosO*sinW*cosI) - yOrb*(sinO*sinW-cosO*cosW*cosI)
	pos.Z = xOrb*(sinW*sinI) + yOrb*(cosW*sinI)

	pos.LatitudeDeg = math.Atan2(pos.Z, math.Hypot(pos.X, pos.Y)) / deg
	pos.LongitudeDeg = math.Mod(math.Atan2(pos.Y, pos.X)/deg, 360.0)
	pos.AltitudeKm = r - earthRadiusKm
	pos.SpeedKmPerSec = math.Sqrt(2*mu/r - mu/a)

	clampNaN(&pos)

	return pos
}

// solveKepler solves E - e·sin(E) = M for the eccentric anomaly by
// Newton-Raphson, seeded at M. Stops when the step shrinks below 1e-12, or
// when the derivative does — near-parabolic geometry would otherwise divide
// by zero.
func solveKepler(m, e float64) float64 {
	ecc := m
	for i := 0; i < 10; i++ {
		fPrime := 1 - e*math.Cos(ecc)
		if math.Abs(fPrime) < 1e-12 {
			break
		}
		delta := (ecc - e*math.Sin(ecc) - m) / fPrime
		ecc -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ecc
}

// clampNaN replaces NaN in the derived fields with safe defaults. Root cause
// can be legitimate near-singular geometry (near-zero orbital radius), so the
// guard stays even though most catalogs never trigger it.
func clampNaN(pos *Position) {
	if math.IsNaN(pos.LatitudeDeg) {
		pos.LatitudeDeg = 0
	}
	if math.IsNaN(pos.LongitudeDeg) {
		pos.LongitudeDeg = 0
	}
	if math.IsNaN(pos.AltitudeKm) {
		pos.AltitudeKm = earthRadiusKm
	}
	if math.IsNaN(pos.SpeedKmPerSec) {
		pos.SpeedKmPerSec = 0
	}
}
