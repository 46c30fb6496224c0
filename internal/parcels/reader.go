package parcels

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"parcelsales/internal/config"
	"parcelsales/internal/types"
)

// Paths lists the parcel files to read: the explicit list when configured,
// otherwise <chunk_dir>/<chunk_basename>_part<i>.csv.
func Paths(cfg config.ParcelsConfig) []string {
	if len(cfg.Files) > 0 {
		return cfg.Files
	}
	paths := make([]string, 0, cfg.ChunkCount)
	for i := 1; i <= cfg.ChunkCount; i++ {
		paths = append(paths, ChunkPath(cfg.ChunkDir, cfg.ChunkBasename, i))
	}
	return paths
}

// ChunkPath is <dir>/<basename>_part<part>.csv.
func ChunkPath(dir, basename string, part int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_part%d.csv", basename, part))
}

// Load reads and concatenates every file in order. Any missing file fails
// the whole load.
func Load(paths []string) (types.Dataset, error) {
	var ds types.Dataset
	seen := make(map[string]bool)

	for _, path := range paths {
		header, err := readFile(path, func(record map[string]string) {
			ds.Parcels = append(ds.Parcels, fromRecord(record))
		})
		if err != nil {
			return types.Dataset{}, err
		}
		for _, h := range header {
			if !seen[h] {
				seen[h] = true
				ds.Header = append(ds.Header, h)
			}
		}
	}
	return ds, nil
}

func fromRecord(record map[string]string) types.Parcel {
	p := types.Parcel{
		ID:    strings.TrimSpace(record[types.ColParcelID]),
		Group: strings.TrimSpace(record[types.ColGroup]),
		Attrs: record,
	}
	p.Acreage, p.HasAcreage = ParseNumber(record[types.ColAcreage])
	return p
}

// ParseNumber reads a numeric cell, treating blanks, "nan" and junk as missing.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// readFile iterates through a CSV with a header row, calling fn for each
// record keyed by column name, and returns the header.
func readFile(path string, fn func(record map[string]string)) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, _ := br.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	for {
		cols, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rec := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(cols) {
				rec[h] = cols[j]
			}
		}
		fn(rec)
	}
	return header, nil
}

// ReadRecords loads a whole CSV as header-keyed records.
func ReadRecords(path string) ([]string, []map[string]string, error) {
	var records []map[string]string
	header, err := readFile(path, func(record map[string]string) {
		records = append(records, record)
	})
	return header, records, err
}
