package model

import "sort"

// VolumeRecord describes one archive root found under a mounted volume.
type VolumeRecord struct {
	Label    string `json:"label"`
	RootPath string `json:"root_path"`
}

// IndexEntry represents a top-level child of an archive root.
type IndexEntry struct {
	Name             string `json:"name"`
	ResolvedPath     string `json:"resolved_path"`
	OriginLabel      string `json:"origin_label"`
	IsDuplicateAlias bool   `json:"is_duplicate_alias"`
}

// CollisionEvent is raised when two volumes supply an entry with the same name.
type CollisionEvent struct {
	Name                string `json:"name"`
	ExistingOriginLabel string `json:"existing_origin_label"`
	IncomingOriginLabel string `json:"incoming_origin_label"`
	AliasKey            string `json:"alias_key"`
}

// Pair is the (name, path) row handed to sinks.
type Pair struct {
	Name string
	Path string
}

// Snapshot is the name-ordered result of one indexing run. It must not be
// mutated once built.
type Snapshot struct {
	entries []IndexEntry
}

// NewSnapshot orders the aggregated entries by name using byte-wise string
// comparison, independent of the map's iteration order.
func NewSnapshot(entries map[string]IndexEntry) *Snapshot {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]IndexEntry, 0, len(names))
	for _, name := range names {
		item := entries[name]
		item.Name = name
		list = append(list, item)
	}
	return &Snapshot{entries: list}
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the ordered entries.
func (s *Snapshot) Entries() []IndexEntry {
	if s == nil {
		return nil
	}
	out := make([]IndexEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Pairs returns the ordered (name, resolved path) rows.
func (s *Snapshot) Pairs() []Pair {
	if s == nil {
		return nil
	}
	out := make([]Pair, 0, len(s.entries))
	for _, item := range s.entries {
		out = append(out, Pair{Name: item.Name, Path: item.ResolvedPath})
	}
	return out
}

// StoredItem is a row read back from the relational index table.
type StoredItem struct {
	Item           string `json:"item"`
	FilesystemPath string `json:"filesystem_path"`
}
