package dataset

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-drilldown/internal/models"
)

const snapshotVersion = "v1"

type snapshot struct {
	Source  string
	Records []models.Record
	SavedAt time.Time
}

// LoadCSVCached behaves like LoadCSV but keeps a gob snapshot of the parsed
// rows in cacheDir. The snapshot is reused while it is newer than the CSV.
// An empty cacheDir disables the snapshot.
func LoadCSVCached(ctx context.Context, filename, cacheDir string) (*Dataset, error) {
	if cacheDir == "" {
		return LoadCSV(ctx, filename)
	}

	path := snapshotPath(cacheDir, filename)
	if snap, err := readSnapshot(path); err == nil {
		info, statErr := os.Stat(filename)
		if statErr == nil && info.ModTime().Before(snap.SavedAt) {
			slog.Default().Info("loaded dataset from snapshot", "records", len(snap.Records), "snapshot", path)
			return New(snap.Records, snap.Source), nil
		}
	}

	ds, err := LoadCSV(ctx, filename)
	if err != nil {
		return nil, err
	}

	if err := writeSnapshot(cacheDir, path, ds); err != nil {
		slog.Default().Warn("failed to save dataset snapshot", "error", err)
	}
	return ds, nil
}

func snapshotPath(cacheDir, csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(csvPath)
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s.gob", name, snapshotVersion))
}

func writeSnapshot(cacheDir, path string, ds *Dataset) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(snapshot{
		Source:  ds.Source(),
		Records: ds.Records(),
		SavedAt: time.Now(),
	})
}

func readSnapshot(path string) (*snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	if len(snap.Records) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}
	return &snap, nil
}
