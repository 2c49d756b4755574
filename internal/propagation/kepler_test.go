package propagation

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skywatch/skycore/internal/tle"
)

const (
	issLine1 = "1 25544U 98067A   24358.50000000  .00016717  00000+0  10270-3 0  9990"
	issLine2 = "2 25544  51.6404 211.5285 0006278  52.1566  98.7102 15.50135517486637"
)

func issElements(t *testing.T) *tle.OrbitalElements {
	t.Helper()
	el, err := tle.ParseLines("ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatalf("parsing fixture TLE: %v", err)
	}
	return el
}

func TestPropagateISSPlausibility(t *testing.T) {
	el := issElements(t)

	// Sweep a full orbit starting at epoch. Every LEO sample should stay in
	// the physically plausible envelope.
	for i := 0; i < 12; i++ {
		at := el.Epoch.Add(time.Duration(i) * 8 * time.Minute)
		pos := Propagate(el, at)

		r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
		if r < 6600 || r > 6900 {
			t.Errorf("t+%dm: orbital radius %.1f km outside LEO envelope", i*8, r)
		}
		if pos.AltitudeKm < 300 || pos.AltitudeKm > 500 {
			t.Errorf("t+%dm: altitude %.1f km, want 300-500", i*8, pos.AltitudeKm)
		}
		if pos.SpeedKmPerSec < 7 || pos.SpeedKmPerSec > 8.5 {
			t.Errorf("t+%dm: speed %.2f km/s, want 7-8.5", i*8, pos.SpeedKmPerSec)
		}
		if pos.LatitudeDeg < -90 || pos.LatitudeDeg > 90 {
			t.Errorf("t+%dm: latitude %.2f out of range", i*8, pos.LatitudeDeg)
		}
		if pos.LongitudeDeg < -180 || pos.LongitudeDeg >= 360 {
			t.Errorf("t+%dm: longitude %.2f out of range", i*8, pos.LongitudeDeg)
		}
		// Inclination bounds the reachable latitude band.
		if math.Abs(pos.LatitudeDeg) > el.InclinationDeg+0.5 {
			t.Errorf("t+%dm: latitude %.2f exceeds inclination %.2f", i*8, pos.LatitudeDeg, el.InclinationDeg)
		}
	}
}

func TestPropagateIdentity(t *testing.T) {
	el := issElements(t)
	pos := Propagate(el, el.Epoch)

	if pos.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q, want fixture name", pos.Name)
	}
	if pos.CatalogID != 25544 {
		t.Errorf("CatalogID = %d, want 25544", pos.CatalogID)
	}
}

func TestPropagateDegenerateEccentricity(t *testing.T) {
	el := issElements(t)

	for _, e := range []float64{1.0, 1.5, -0.1} {
		mod := *el
		mod.Eccentricity = e
		pos := Propagate(&mod, el.Epoch)

		if pos.X != 0 || pos.Y != 0 || pos.Z != 0 {
			t.Errorf("e=%v: position = (%v,%v,%v), want origin sentinel", e, pos.X, pos.Y, pos.Z)
		}
		if pos.LatitudeDeg != 0 || pos.LongitudeDeg != 0 {
			t.Errorf("e=%v: lat/lon = (%v,%v), want zeros", e, pos.LatitudeDeg, pos.LongitudeDeg)
		}
		if pos.AltitudeKm != 6371 {
			t.Errorf("e=%v: altitude = %v, want 6371 sentinel", e, pos.AltitudeKm)
		}
		if pos.SpeedKmPerSec != 0 {
			t.Errorf("e=%v: speed = %v, want 0", e, pos.SpeedKmPerSec)
		}
	}
}

func TestPropagateOnePeriodReturns(t *testing.T) {
	el := issElements(t)

	periodMin := 1440.0 / el.MeanMotion
	p0 := Propagate(el, el.Epoch)
	p1 := Propagate(el, el.Epoch.Add(time.Duration(periodMin*float64(time.Minute))))

	// Two-body motion is exactly periodic; tolerance covers the millisecond
	// truncation of the Duration conversion.
	d := math.Sqrt(
		(p1.X-p0.X)*(p1.X-p0.X) +
			(p1.Y-p0.Y)*(p1.Y-p0.Y) +
			(p1.Z-p0.Z)*(p1.Z-p0.Z))
	if d > 5.0 {
		t.Errorf("position after one period drifted %.3f km", d)
	}
}

// TestPropagateAgainstSGP4 compares the two-body solution against the full
// SGP4 model near epoch. The models diverge with time (no drag or J2 here),
// but the orbital radius must agree within a coarse band while fresh.
func TestPropagateAgainstSGP4(t *testing.T) {
	el := issElements(t)
	sat := satellite.TLEToSat(issLine1, issLine2, satellite.GravityWGS84)

	for _, offset := range []time.Duration{0, 15 * time.Minute, 45 * time.Minute} {
		at := el.Epoch.Add(offset)

		kp := Propagate(el, at)
		rKepler := math.Sqrt(kp.X*kp.X + kp.Y*kp.Y + kp.Z*kp.Z)

		pos, _ := satellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
		rSGP4 := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)

		if math.IsNaN(rSGP4) {
			t.Fatalf("t+%v: reference SGP4 produced NaN", offset)
		}
		if dr := math.Abs(rKepler - rSGP4); dr > 100 {
			t.Errorf("t+%v: radial disagreement %.1f km vs SGP4, want <= 100", offset, dr)
		}
	}
}

func TestSolveKeplerCircular(t *testing.T) {
	// Zero eccentricity solves exactly: E == M.
	for _, m := range []float64{0, 0.5, math.Pi, 5.0} {
		if got := solveKepler(m, 0); math.Abs(got-m) > 1e-12 {
			t.Errorf("solveKepler(%v, 0) = %v, want %v", m, got, m)
		}
	}
}

func TestSolveKeplerResidual(t *testing.T) {
	for _, e := range []float64{0.001, 0.1, 0.7} {
		for _, m := range []float64{0.3, 1.2, 3.0, 6.0} {
			ecc := solveKepler(m, e)
			residual := ecc - e*math.Sin(ecc) - m
			if math.Abs(residual) > 1e-9 {
				t.Errorf("e=%v m=%v: residual %v too large", e, m, residual)
			}
		}
	}
}
