package faidx

import (
	"io"
	"slices"
)

// Index maps record names to entries for one format. Names are unique; a
// later entry for a name replaces the earlier one in place. An Index is
// read-only once built or loaded and safe for concurrent lookups.
type Index struct {
	format  Format
	byName  map[string]int
	entries []Entry
}

func newIndex(format Format) *Index {
	return &Index{format: format, byName: make(map[string]int)}
}

func (ix *Index) add(e Entry) {
	if i, ok := ix.byName[e.Name]; ok {
		ix.entries[i] = e
		return
	}
	ix.byName[e.Name] = len(ix.entries)
	ix.entries = append(ix.entries, e)
}

// Build scans rs from its current position and returns the index of every
// record.
func Build(rs io.ReadSeeker, format Format, opts ...Option) (*Index, error) {
	ixr, err := NewIndexer(rs, format, opts...)
	if err != nil {
		return nil, err
	}
	idx := newIndex(format)
	for e, err := range ixr.All() {
		if err != nil {
			return nil, err
		}
		idx.add(e)
	}
	ixr.logger.Debug("built index", "entries", idx.Len())
	return idx, nil
}

// FromEntries builds an index from entries, last write winning.
func FromEntries(format Format, entries ...Entry) *Index {
	idx := newIndex(format)
	for _, e := range entries {
		idx.add(e)
	}
	return idx
}

// Format returns the format the index describes.
func (ix *Index) Format() Format {
	return ix.format
}

// Lookup returns the entry for name.
func (ix *Index) Lookup(name string) (Entry, bool) {
	i, ok := ix.byName[name]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Names returns the record names in insertion order.
func (ix *Index) Names() []string {
	names := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the entries in insertion order.
func (ix *Index) Entries() []Entry {
	return slices.Clone(ix.entries)
}
