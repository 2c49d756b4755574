// Package passes scans a time window for intervals when a satellite is above
// an observer's horizon. Geometry uses the sub-satellite point from the
// simplified propagator and a spherical-Earth elevation model, which is
// accurate to a degree or two — enough to tell a user when to look up.
package passes

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/skywatch/skycore/internal/celestial"
	"github.com/skywatch/skycore/internal/propagation"
	"github.com/skywatch/skycore/internal/tle"
)

const (
	earthRadiusKm = 6371.0

	coarseStep = 30 * time.Second
	fineStep   = 1 * time.Second
	minPassDur = 10 * time.Second

	// maxFineScan bounds one fine-resolution scan. The catalog's mean-motion
	// window keeps a single above-horizon arc well under 45 minutes, so a
	// coarse hit that never clears the elevation threshold must not walk the
	// whole request horizon at one-second steps.
	maxFineScan = 45 * time.Minute
)

// Observer is a ground location, degrees, east-positive longitude.
type Observer struct {
	LatDeg float64
	LonDeg float64
}

// PassEvent describes one above-horizon window.
type PassEvent struct {
	StartTime        time.Time `json:"start_time"`
	MaxElevationTime time.Time `json:"max_elevation_time"`
	EndTime          time.Time `json:"end_time"`
	DurationSeconds  float64   `json:"duration_seconds"`
	MaxElevation     float64   `json:"max_elevation"`
	AzimuthAtMax     float64   `json:"azimuth_at_max"`
}

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	CatalogID int         `json:"catalog_id"`
	Name      string      `json:"name"`
	Passes    []PassEvent `json:"passes"`
	Error     string      `json:"error,omitempty"`
}

// Request holds the parameters for a pass prediction request.
type Request struct {
	Observer     Observer
	Records      []tle.CatalogRecord
	Start        time.Time
	HorizonHours float64
	MinElevation float64 // degrees
	MaxPasses    int
}

// Predict computes satellite passes for the given request. Each satellite is
// processed in its own goroutine, bounded by a semaphore. Results preserve
// input order.
func Predict(ctx context.Context, req Request) []SatellitePasses {
	results := make([]SatellitePasses, len(req.Records))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, rec := range req.Records {
		wg.Add(1)
		go func(idx int, rec tle.CatalogRecord) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = SatellitePasses{
					CatalogID: rec.NoradCatID,
					Name:      rec.ObjectName,
					Error:     "cancelled",
				}
				return
			}

			el, err := tle.FromRecord(rec)
			if err != nil {
				results[idx] = SatellitePasses{
					CatalogID: rec.NoradCatID,
					Name:      rec.ObjectName,
					Error:     err.Error(),
				}
				return
			}
			results[idx] = SatellitePasses{
				CatalogID: el.CatalogID,
				Name:      el.Name,
				Passes:    predictSatellite(ctx, req, el),
			}
		}(i, rec)
	}

	wg.Wait()
	return results
}

// predictSatellite finds all passes for a single satellite: a coarse scan
// locates above-horizon candidates, a fine scan pins down rise and set.
func predictSatellite(ctx context.Context, req Request, el *tle.OrbitalElements) []PassEvent {
	end := req.Start.Add(time.Duration(req.HorizonHours * float64(time.Hour)))
	var passes []PassEvent

	t := req.Start
	for t.Before(end) && len(passes) < req.MaxPasses {
		if ctx.Err() != nil {
			return passes
		}

		elev, _ := lookAngles(el, req.Observer, t)
		if elev > 0 {
			pass, windowEnd := refinePass(ctx, el, req.Observer, t, req.Start, end, req.MinElevation)
			if pass != nil && pass.EndTime.Sub(pass.StartTime) >= minPassDur {
				passes = append(passes, *pass)
			}
			t = windowEnd.Add(coarseStep)
		} else {
			t = t.Add(coarseStep)
		}
	}

	return passes
}

// refinePass scans at fine resolution around a coarse above-horizon hit,
// backing up to catch the rise and walking forward to the set.
func refinePass(ctx context.Context, el *tle.OrbitalElements, obs Observer, coarseHit, windowStart, windowEnd time.Time, minElev float64) (*PassEvent, time.Time) {
	searchStart := coarseHit.Add(-coarseStep)
	if searchStart.Before(windowStart) {
		searchStart = windowStart
	}
	fineEnd := searchStart.Add(maxFineScan)
	if fineEnd.After(windowEnd) {
		fineEnd = windowEnd
	}

	var (
		riseTime  time.Time
		setTime   time.Time
		maxEl     float64
		maxElTime time.Time
		maxElAz   float64
		wasAbove  bool
		foundRise bool
	)

	t := searchStart
	for t.Before(fineEnd) {
		if ctx.Err() != nil {
			break
		}

		elev, az := lookAngles(el, obs, t)
		above := elev >= minElev

		if above && !wasAbove {
			riseTime = t
			foundRise = true
			maxEl = elev
			maxElTime = t
			maxElAz = az
		}
		if above && foundRise && elev > maxEl {
			maxEl = elev
			maxElTime = t
			maxElAz = az
		}
		if !above && wasAbove && foundRise {
			setTime = t
			break
		}

		wasAbove = above
		t = t.Add(fineStep)
	}

	// Still above the threshold at the scan edge: close the pass there.
	if foundRise && setTime.IsZero() && wasAbove {
		setTime = t
	}

	if !foundRise || setTime.IsZero() {
		return nil, t
	}

	return &PassEvent{
		StartTime:        riseTime,
		MaxElevationTime: maxElTime,
		EndTime:          setTime,
		DurationSeconds:  setTime.Sub(riseTime).Seconds(),
		MaxElevation:     maxEl,
		AzimuthAtMax:     maxElAz,
	}, setTime
}

// lookAngles returns elevation and azimuth (degrees) from the observer to the
// satellite's sub-point at time t, on a spherical Earth.
func lookAngles(el *tle.OrbitalElements, obs Observer, t time.Time) (float64, float64) {
	pos := propagation.Propagate(el, t)

	// The propagator's longitude is inertial; rotate by GMST to get the
	// Earth-fixed sub-satellite longitude.
	gmst := celestial.LocalSiderealTime(t, 0)
	satLon := math.Mod(pos.LongitudeDeg-gmst, 360.0)

	latO := obs.LatDeg * math.Pi / 180
	latS := pos.LatitudeDeg * math.Pi / 180
	dLon := (satLon - obs.LonDeg) * math.Pi / 180

	// Central angle between observer and sub-satellite point.
	cosGamma := math.Sin(latO)*math.Sin(latS) + math.Cos(latO)*math.Cos(latS)*math.Cos(dLon)
	gamma := math.Acos(math.Max(-1, math.Min(1, cosGamma)))

	r := earthRadiusKm + pos.AltitudeKm
	elev := math.Atan2(cosGamma-earthRadiusKm/r, math.Sin(gamma)) * 180 / math.Pi

	az := math.Atan2(
		math.Sin(dLon)*math.Cos(latS),
		math.Cos(latO)*math.Sin(latS)-math.Sin(latO)*math.Cos(latS)*math.Cos(dLon),
	) * 180 / math.Pi
	if az < 0 {
		az += 360
	}

	return elev, az
}
