package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Set is the collection of parcel IDs whose page has been fetched and parsed.
type Set map[string]struct{}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string) { s[id] = struct{}{} }

func (s Set) Len() int { return len(s) }

// IDs returns the members sorted.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store persists a Set as a JSON array of strings. There is no locking: one
// process owns a progress file at a time.
type Store struct {
	Path string
}

// NewStore returns a store for the progress file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load returns an empty set when the file does not exist yet. Any other read
// or decode failure is returned so the caller can stop before Save clobbers it.
func (s *Store) Load() (Set, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("read progress %s: %w", s.Path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", s.Path, err)
	}

	set := make(Set, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set, nil
}

// Save overwrites the file with the whole set. The new content is written to
// a sibling temp file and renamed over the old one.
func (s *Store) Save(set Set) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(set.IDs())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("save progress %s: %w", s.Path, err)
	}
	return nil
}
