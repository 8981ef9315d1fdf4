// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BundleEntry is the outcome of analysing one file: a result or the error
// that stopped it.
type BundleEntry struct {
	Path   string
	Result *AnalysisResult
	Err    error
}

// Failed reports whether the file could not be analysed.
func (e BundleEntry) Failed() bool {
	return e.Err != nil
}

// ReportBundle collects per-file outcomes keyed by input path, in the order
// the files were analysed. Entries are only ever added or replaced.
type ReportBundle struct {
	entries []BundleEntry
	index   map[string]int
}

// NewReportBundle returns an empty bundle.
func NewReportBundle() *ReportBundle {
	return &ReportBundle{index: make(map[string]int)}
}

// Add records the result for path, replacing an earlier entry for the same path.
func (b *ReportBundle) Add(path string, result *AnalysisResult) {
	b.put(BundleEntry{Path: path, Result: result})
}

// AddFailure records that path could not be analysed.
func (b *ReportBundle) AddFailure(path string, err error) {
	b.put(BundleEntry{Path: path, Err: err})
}

func (b *ReportBundle) put(e BundleEntry) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[e.Path]; ok {
		b.entries[i] = e
		return
	}
	b.index[e.Path] = len(b.entries)
	b.entries = append(b.entries, e)
}

// Get returns the entry for path.
func (b *ReportBundle) Get(path string) (BundleEntry, bool) {
	i, ok := b.index[path]
	if !ok {
		return BundleEntry{}, false
	}
	return b.entries[i], true
}

// Entries returns a copy of the entries in insertion order.
func (b *ReportBundle) Entries() []BundleEntry {
	return append([]BundleEntry(nil), b.entries...)
}

// Paths returns the input paths in insertion order.
func (b *ReportBundle) Paths() []string {
	paths := make([]string, len(b.entries))
	for i, e := range b.entries {
		paths[i] = e.Path
	}
	return paths
}

// Len returns the number of entries.
func (b *ReportBundle) Len() int {
	return len(b.entries)
}

// Failed returns the number of entries that carry an error.
func (b *ReportBundle) Failed() int {
	n := 0
	for _, e := range b.entries {
		if e.Failed() {
			n++
		}
	}
	return n
}
