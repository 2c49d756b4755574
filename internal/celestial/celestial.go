// Package celestial converts equatorial coordinates to Cartesian sky positions
// and computes sidereal time for aligning the celestial sphere to an observer.
package celestial

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch.
const j2000 = 2451545.0

// DefaultSphereRadius is the celestial sphere radius handed to renderers.
const DefaultSphereRadius = 1000.0

// Cartesian is a point in a right-handed sky frame:
// x toward the vernal equinox (RA 0h, Dec 0°), y toward the north
// celestial pole, z toward RA 6h on the equator.
type Cartesian struct {
	X, Y, Z float64
}

// EquatorialToCartesian maps right ascension (hours) and declination
// (degrees) onto a sphere of the given radius. RA wraps implicitly:
// RA 24h produces the same point as RA 0h.
func EquatorialToCartesian(raHours, decDeg, radius float64) Cartesian {
	raRad := raHours * 15.0 * math.Pi / 180.0
	decRad := decDeg * math.Pi / 180.0

	return Cartesian{
		X: radius * math.Cos(decRad) * math.Cos(raRad),
		Y: radius * math.Sin(decRad),
		Z: radius * math.Cos(decRad) * math.Sin(raRad),
	}
}

// JulianDate converts a time to a Julian Date using the Unix-epoch offset
// (JD 2440587.5 at 1970-01-01T00:00:00Z).
func JulianDate(t time.Time) float64 {
	return float64(t.UnixMilli())/86400000.0 + 2440587.5
}

// LocalSiderealTime returns the local sidereal time in degrees, in [0, 360),
// for a UTC instant and an east-positive observer longitude. Sidereal time
// runs ~0.9856° per day ahead of solar time.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	jd := JulianDate(t)
	gmst := 280.46061837 + 360.98564736629*(jd-j2000)

	lst := math.Mod(gmst+lonDeg, 360.0)
	if lst < 0 {
		lst += 360.0
	}
	return lst
}

// Horizontal holds observer-relative horizontal coordinates.
// Azimuth: 0° = North, 90° = East. Elevation: 0° = horizon, 90° = zenith.
type Horizontal struct {
	AzimuthDeg   float64
	ElevationDeg float64
}

// EquatorialToHorizontal converts RA (hours) and Dec (degrees) to azimuth and
// elevation for an observer at the given latitude/longitude (degrees, east
// positive) and time.
func EquatorialToHorizontal(raHours, decDeg float64, latDeg, lonDeg float64, t time.Time) Horizontal {
	lat := latDeg * math.Pi / 180.0
	dec := decDeg * math.Pi / 180.0

	lst := LocalSiderealTime(t, lonDeg)
	ha := (lst - raHours*15.0) * math.Pi / 180.0

	sinEl := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	el := math.Asin(sinEl)

	cosAz := (math.Sin(dec) - math.Sin(el)*math.Sin(lat)) / (math.Cos(el) * math.Cos(lat))
	// Clamp against floating point drift before Acos.
	if cosAz > 1 {
		cosAz = 1
	} else if cosAz < -1 {
		cosAz = -1
	}
	az := math.Acos(cosAz)
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	return Horizontal{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
	}
}
