// Command skydiag compares the simplified Kepler propagator against the
// go-satellite SGP4 reference for every entry in a TLE text file. Use it to
// gauge how far the two-body solution drifts from the full perturbation
// model for a given catalog.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skywatch/skycore/internal/propagation"
	"github.com/skywatch/skycore/internal/tle"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: skydiag <tle-file> [rfc3339-time]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR reading TLE file:", err)
		os.Exit(1)
	}

	at := time.Now().UTC()
	if len(os.Args) > 2 {
		at, err = time.Parse(time.RFC3339, os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR parsing time:", err)
			os.Exit(1)
		}
	}

	records, err := tle.ReadText(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR parsing TLE data:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries, comparing at %s\n\n", len(records), at.Format(time.RFC3339))

	var worst float64
	var compared int
	for _, rec := range records {
		el, err := tle.FromRecord(rec)
		if err != nil {
			fmt.Printf("  %-24s parse error: %v\n", rec.ObjectName, err)
			continue
		}

		kp := propagation.Propagate(el, at)
		rKepler := math.Sqrt(kp.X*kp.X + kp.Y*kp.Y + kp.Z*kp.Z)

		// go-satellite calls log.Fatal on malformed lines; ReadText already
		// rejected anything shorter than the fixed format.
		sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS84)
		pos, _ := satellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
		rSGP4 := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)

		if math.IsNaN(rSGP4) {
			fmt.Printf("  %-24s sgp4 produced NaN, skipping comparison\n", rec.ObjectName)
			continue
		}

		dr := math.Abs(rKepler - rSGP4)
		if dr > worst {
			worst = dr
		}
		compared++

		fmt.Printf("  %-24s NORAD %-6d kepler r=%8.1f km  sgp4 r=%8.1f km  |dr|=%7.2f km  alt=%6.1f km  v=%5.2f km/s\n",
			el.Name, el.CatalogID, rKepler, rSGP4, dr, kp.AltitudeKm, kp.SpeedKmPerSec)
	}

	fmt.Printf("\nCompared %d satellites, worst radial disagreement %.2f km\n", compared, worst)
}
