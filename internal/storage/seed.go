package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"Travia/internal/transport"
)

var seedFiles = []struct {
	file string
	mode transport.Mode
}{
	{"trains.json", transport.ModeTrain},
	{"flights.json", transport.ModeFlight},
	{"buses.json", transport.ModeBus},
	{"taxis.json", transport.ModeTaxi},
	{"bikes.json", transport.ModeBike},
}

// Seed loads the per-mode JSON files in dir into an empty catalog. It is a
// no-op when the catalog already has rows. Missing files are skipped. It
// returns the number of rows inserted.
func (d *DB) Seed(ctx context.Context, dir string) (int, error) {
	ctx, span := d.tracer.Start(ctx, "storage.seed")
	defer span.End()

	n, err := d.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	for _, sf := range seedFiles {
		rows, err := readSeedFile(filepath.Join(dir, sf.file))
		if err != nil {
			return inserted, err
		}
		for _, raw := range rows {
			opt := transport.FromRecord(raw, sf.mode)
			opt.Mode = sf.mode
			if opt.ID == "" {
				opt.ID = seedID(sf.mode, raw)
			}
			extra, err := json.Marshal(raw)
			if err != nil {
				return inserted, fmt.Errorf("failed to encode seed row: %w", err)
			}
			if err := d.InsertOption(ctx, opt, string(extra)); err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, nil
}

func readSeedFile(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func seedID(mode transport.Mode, raw map[string]any) string {
	for _, key := range []string{"code", "name"} {
		if v, ok := raw[key]; ok && v != nil {
			return fmt.Sprintf("%s_%v", mode, v)
		}
	}
	return fmt.Sprintf("%s_unk", mode)
}
