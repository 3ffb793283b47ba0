package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/species"
)

// SpeciesRecord is one species row in species.csv.
type SpeciesRecord struct {
	Step           int     `csv:"step"`
	Kind           string  `csv:"kind"`
	ID             uint32  `csv:"id"`
	Name           string  `csv:"name"`
	Parent         uint32  `csv:"parent"`
	Size           int     `csv:"size"`
	Retired        bool    `csv:"retired"`
	CentroidSpeed  float64 `csv:"centroid_speed"`
	CentroidVision float64 `csv:"centroid_vision"`
}

// SpeciesRecords flattens species snapshots into CSV rows.
func SpeciesRecords(step int, kind components.Kind, snaps []species.Snapshot) []SpeciesRecord {
	out := make([]SpeciesRecord, 0, len(snaps))
	for _, s := range snaps {
		r := SpeciesRecord{
			Step:    step,
			Kind:    kind.String(),
			ID:      uint32(s.ID),
			Name:    s.Name,
			Parent:  uint32(s.Parent),
			Size:    len(s.Members),
			Retired: s.Retired,
		}
		if len(s.Centroid) >= 2 {
			r.CentroidSpeed, r.CentroidVision = s.Centroid[0], s.Centroid[1]
		}
		out = append(out, r)
	}
	return out
}

// csvFile appends gocsv records to one file, writing the header once.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	var err error
	if !c.headerWritten {
		// First write includes headers
		err = gocsv.Marshal(records, c.f)
		c.headerWritten = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, c.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	history   *csvFile
	telemetry *csvFile
	species   *csvFile
	perf      *csvFile
	bookmarks *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		dst  **csvFile
		name string
	}{
		{&om.history, "history.csv"},
		{&om.telemetry, "telemetry.csv"},
		{&om.species, "species.csv"},
		{&om.perf, "perf.csv"},
		{&om.bookmarks, "bookmarks.csv"},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		*file.dst = &csvFile{name: file.name, f: f}
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteHistory appends population records to history.csv.
func (om *OutputManager) WriteHistory(records []PopulationRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	return om.history.write(records)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WriteSpecies appends species rows to species.csv.
func (om *OutputManager) WriteSpecies(records []SpeciesRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	return om.species.write(records)
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, c := range []*csvFile{om.history, om.telemetry, om.species, om.perf, om.bookmarks} {
		if c != nil {
			errs = append(errs, c.f.Close())
		}
	}
	return errors.Join(errs...)
}
