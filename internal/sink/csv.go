package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"parcelsales/internal/types"
)

// Append writes rows to the sales CSV at path. A new file gets the header
// first; an existing one is only extended. A crash mid-call can leave a
// partial last line, which the next run does not repair.
func Append(rows []types.Sale, path string) error {
	if len(rows) == 0 {
		return nil
	}
	return write(rows, path)
}

// EnsureHeader leaves path holding at least the header row, so a group that
// was crawled without finding any sales still has a sales file.
func EnsureHeader(path string) error {
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		return nil
	}
	return write(nil, path)
}

func write(rows []types.Sale, path string) error {
	needHeader := false
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		needHeader = true
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(types.SalesHeader); err != nil {
			f.Close()
			return err
		}
	}
	for _, r := range rows {
		if err := w.Write(Record(r)); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Record lays a sale out in SalesHeader order.
func Record(s types.Sale) []string {
	return []string{
		s.ParcelID,
		s.SoldDate,
		FormatFloat(s.SoldPrice),
		s.DeedType,
		FormatFloat(s.Acreage),
		FormatBool(s.HasHouse),
		s.OwnerState,
	}
}

// FormatFloat matches the files written by the earlier tooling, where whole
// numbers keep a trailing ".0".
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// FormatBool writes "True" or "False".
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts both "True"/"False" and the usual Go spellings.
func ParseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
