package tle

import "time"

// OrbitalElements is a parsed two-line element set. Immutable once built.
type OrbitalElements struct {
	Name      string
	CatalogID int
	Epoch     time.Time

	MeanMotionDot    float64 // rev/day², as printed (n-dot/2)
	MeanMotionDotDot float64 // rev/day³, as printed (n-ddot/6)
	DragTerm         float64 // B*, 1/Earth radii

	InclinationDeg float64
	RAANDeg        float64
	Eccentricity   float64
	ArgPerigeeDeg  float64
	MeanAnomalyDeg float64
	MeanMotion     float64 // rev/day

	RevolutionNumber int

	Line1 string
	Line2 string
}

// CatalogRecord is the JSON variant published by catalog providers
// (Celestrak gp.php, space-track.org OMM output).
type CatalogRecord struct {
	ObjectName      string  `json:"OBJECT_NAME"`
	NoradCatID      int     `json:"NORAD_CAT_ID"`
	Epoch           string  `json:"EPOCH"`
	MeanMotion      float64 `json:"MEAN_MOTION"`
	Eccentricity    float64 `json:"ECCENTRICITY"`
	Inclination     float64 `json:"INCLINATION"`
	RAOfAscNode     float64 `json:"RA_OF_ASC_NODE"`
	ArgOfPericenter float64 `json:"ARG_OF_PERICENTER"`
	MeanAnomaly     float64 `json:"MEAN_ANOMALY"`
	Line1           string  `json:"TLE_LINE1"`
	Line2           string  `json:"TLE_LINE2"`
}

// EpochRange is the minimum and maximum element epochs in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete catalog snapshot from one source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Records    []CatalogRecord
}
