package tle

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadText(t *testing.T) {
	input := strings.Join([]string{
		"ISS (ZARYA)",
		issLine1,
		issLine2,
	}, "\n")

	records, err := ReadText(strings.NewReader(input), discardLogger())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ObjectName != "ISS (ZARYA)" {
		t.Errorf("ObjectName = %q, want %q", rec.ObjectName, "ISS (ZARYA)")
	}
	if rec.NoradCatID != 25544 {
		t.Errorf("NoradCatID = %d, want 25544", rec.NoradCatID)
	}
	if rec.Line1 != issLine1 || rec.Line2 != issLine2 {
		t.Error("raw TLE lines not preserved on the record")
	}
}

func TestReadTextSkipsMalformed(t *testing.T) {
	// A stray header line before a valid triplet, plus a triplet whose element
	// lines are truncated.
	input := strings.Join([]string{
		"CATALOG HEADER NOISE",
		"ISS (ZARYA)",
		issLine1,
		issLine2,
		"BROKEN SAT",
		"1 00001",
		"2 00001",
	}, "\n")

	records, err := ReadText(strings.NewReader(input), discardLogger())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (malformed entries skipped)", len(records))
	}
	if records[0].NoradCatID != 25544 {
		t.Errorf("NoradCatID = %d, want 25544", records[0].NoradCatID)
	}
}

func TestReadTextEmpty(t *testing.T) {
	records, err := ReadText(strings.NewReader(""), discardLogger())
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
