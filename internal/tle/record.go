package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// FromRecord parses the raw TLE lines carried by a catalog record.
// A record with neither line yields a *MissingDataError.
func FromRecord(rec CatalogRecord) (*OrbitalElements, error) {
	if rec.Line1 == "" && rec.Line2 == "" {
		return nil, &MissingDataError{Name: rec.ObjectName}
	}
	return ParseLines(rec.ObjectName, rec.Line1, rec.Line2)
}

// FilterByName returns the records whose object name contains needle,
// compared case-insensitively. No match returns an empty slice, not an error.
func FilterByName(records []CatalogRecord, needle string) []CatalogRecord {
	needle = strings.ToLower(needle)
	matched := make([]CatalogRecord, 0)
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.ObjectName), needle) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// ReadText reads the 3-line NORAD text format (name line followed by the two
// element lines) and returns catalog records holding the raw lines.
// Malformed entries are skipped with a warning log.
func ReadText(r io.Reader, logger *slog.Logger) ([]CatalogRecord, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var records []CatalogRecord
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Try to find the next valid triplet.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		el, err := ParseLines(name, line1, line2)
		if err != nil {
			logger.Warn("skipping unparseable TLE entry", "name", name, "error", err)
			i += 3
			continue
		}

		records = append(records, CatalogRecord{
			ObjectName:      el.Name,
			NoradCatID:      el.CatalogID,
			Epoch:           el.Epoch.Format("2006-01-02T15:04:05.999999"),
			MeanMotion:      el.MeanMotion,
			Eccentricity:    el.Eccentricity,
			Inclination:     el.InclinationDeg,
			RAOfAscNode:     el.RAANDeg,
			ArgOfPericenter: el.ArgPerigeeDeg,
			MeanAnomaly:     el.MeanAnomalyDeg,
			Line1:           line1,
			Line2:           line2,
		})
		i += 3
	}

	return records, nil
}
