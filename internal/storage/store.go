package storage

import (
	"context"
	"errors"
	"time"

	"depsweep/internal/deps"
	"depsweep/internal/report"
)

// ErrScanNotFound is returned when a scan ID has no stored record.
var ErrScanNotFound = errors.New("scan not found")

// Store combines the symbol cache and the scan history.
type Store interface {
	SymbolStore
	ScanStore
	Close() error
}

// SymbolStore caches the symbols exported by resolved artifacts.
type SymbolStore interface {
	// LoadSymbols returns the cached symbols for "group:artifact:version" coordinates.
	LoadSymbols(ctx context.Context, coordinates string) (deps.SymbolSet, bool, error)

	// SaveSymbols replaces the cached symbols for the coordinates.
	SaveSymbols(ctx context.Context, coordinates string, symbols deps.SymbolSet) error
}

// ScanStore persists finished scans.
type ScanStore interface {
	SaveScan(ctx context.Context, scan Scan, r *report.Report) error
	ListScans(ctx context.Context, limit int) ([]Scan, error)
	LoadScan(ctx context.Context, id string) (Scan, *report.Report, error)
}

// Scan summarizes one stored scan.
type Scan struct {
	ID         string
	Root       string
	StartedAt  time.Time
	Duration   time.Duration
	Modules    int
	Unused     int
	Unresolved int
	Unparsable int
}
