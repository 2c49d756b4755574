package propagation

// Position is a satellite state at a single query time. It has no persistent
// identity: callers recompute it per render tick and discard it.
type Position struct {
	Name      string `json:"name"`
	CatalogID int    `json:"catalog_id"`

	// Earth-centered inertial coordinates, kilometers.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	LatitudeDeg   float64 `json:"latitude_deg"`
	LongitudeDeg  float64 `json:"longitude_deg"`
	AltitudeKm    float64 `json:"altitude_km"`
	SpeedKmPerSec float64 `json:"speed_km_s"`
}
