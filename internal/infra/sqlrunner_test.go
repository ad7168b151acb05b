package infra

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b911a2f-4f54-4a3e-9a92-6b3f0c5d8e71\nSELECT 1"
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker: %v", err)
	}
	if marker != "0b911a2f-4f54-4a3e-9a92-6b3f0c5d8e71" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "SELECT 1" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerLeadingWhitespace(t *testing.T) {
	query := "\n\t--sql 0b911a2f-4f54-4a3e-9a92-6b3f0c5d8e71\nSELECT 1"
	if _, _, err := extractMarker(query); err != nil {
		t.Fatalf("extractMarker: %v", err)
	}
}

func TestExtractMarkerRejectsMissingOrMalformed(t *testing.T) {
	cases := []string{
		"SELECT 1",
		"-- comment\nSELECT 1",
		"--sql not-a-uuid\nSELECT 1",
		"--sql 0b911a2f-4f54-4a3e-9a92-6b3f0c5d8e71 trailing\nSELECT 1",
	}
	for _, query := range cases {
		if _, _, err := extractMarker(query); err == nil {
			t.Fatalf("query %q accepted without a valid marker", query)
		}
	}
}

func TestErrorRowScan(t *testing.T) {
	row := errorRow{err: pgx.ErrNoRows}
	var out string
	err := row.Scan(&out)
	if !IsNoRows(err) {
		t.Fatalf("err = %v, want no-rows", err)
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatal("pgx.ErrNoRows not recognized")
	}
	if IsNoRows(errors.New("connection reset")) {
		t.Fatal("unrelated error recognized as no-rows")
	}
}
