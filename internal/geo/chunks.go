package geo

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"parcelsales/internal/parcels"
	"parcelsales/internal/types"
)

// ChunkBasename is the dated basename the parcel loader is configured with.
func ChunkBasename(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, day.Format("20060102"))
}

// WriteChunks splits the layer into n files of ceil(len/n) rows each, named
// <basename>_part<i>.csv, with the DBF columns followed by lat and lon.
// Every part is written, even when it ends up with only a header.
func WriteChunks(layer Layer, dir, basename string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("chunk count must be at least 1, got %d", n)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	header := append(append([]string{}, layer.Fields...), types.ColLat, types.ColLon)
	size := (len(layer.Features) + n - 1) / n

	var paths []string
	for i := 0; i < n; i++ {
		start := min(i*size, len(layer.Features))
		end := min(start+size, len(layer.Features))

		path := parcels.ChunkPath(dir, basename, i+1)
		if err := writeChunk(path, header, layer.Fields, layer.Features[start:end]); err != nil {
			return paths, fmt.Errorf("write chunk %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeChunk(path string, header, fields []string, features []Feature) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	row := make([]string, len(header))
	for _, feat := range features {
		for i, name := range fields {
			row[i] = feat.Attrs[name]
		}
		row[len(fields)] = strconv.FormatFloat(feat.Lat, 'f', -1, 64)
		row[len(fields)+1] = strconv.FormatFloat(feat.Lon, 'f', -1, 64)
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
