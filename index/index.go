// Package index holds the in-memory study/series/instance cache, keyed by
// the source URL each payload was fetched from.
package index

import (
	"sync"

	"github.com/caio-sobreiro/dicomjson/types"
)

// SortFunc returns a caller-ordered copy of a study's series list.
type SortFunc func(series []*types.Series) []*types.Series

// Index is the metadata cache of a session.
//
// Readers never mutate cached studies. Upsert replaces an entry as a whole
// under the write lock, so a concurrent reader sees either the old or the
// new entry, never a mix.
type Index struct {
	mu      sync.RWMutex
	entries []types.CacheEntry
	byURL   map[string]int
	uids    map[string][]string
}

// New returns an empty index.
func New() *Index {
	return &Index{
		byURL: make(map[string]int),
		uids:  make(map[string][]string),
	}
}

// Upsert installs the studies a URL resolved to, together with the reverse
// URL to StudyInstanceUID projection. Replacing an existing URL keeps the
// entry's position in insertion order.
func (x *Index) Upsert(url string, studies []*types.Study) {
	entry := types.CacheEntry{
		URL:     url,
		Studies: append([]*types.Study(nil), studies...),
	}
	uids := entry.StudyInstanceUIDs()

	x.mu.Lock()
	defer x.mu.Unlock()

	if i, ok := x.byURL[url]; ok {
		x.entries[i] = entry
	} else {
		x.byURL[url] = len(x.entries)
		x.entries = append(x.entries, entry)
	}
	x.uids[url] = uids
}

// LookupByURL returns the entry cached for exactly url.
func (x *Index) LookupByURL(url string) (types.CacheEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	i, ok := x.byURL[url]
	if !ok {
		return types.CacheEntry{}, false
	}
	return x.entries[i], true
}

// StudyUIDs returns the StudyInstanceUIDs url resolved to.
func (x *Index) StudyUIDs(url string) ([]string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	uids, ok := x.uids[url]
	if !ok {
		return nil, false
	}
	return append([]string(nil), uids...), true
}

// FindStudies scans every cached entry and returns the studies whose
// attribute key equals value, in entry insertion order and then study order.
// A study cached under more than one URL appears once per URL.
func (x *Index) FindStudies(key string, value types.Value) []*types.Study {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var studies []*types.Study
	for _, entry := range x.entries {
		for _, study := range entry.Studies {
			if attr, ok := study.Attributes[key]; ok && attr.Equal(value) {
				studies = append(studies, study)
			}
		}
	}
	return studies
}

// FindStudy returns the first cached study with the given StudyInstanceUID.
func (x *Index) FindStudy(studyUID string) (*types.Study, bool) {
	studies := x.FindStudies("StudyInstanceUID", types.String(studyUID))
	if len(studies) == 0 {
		return nil, false
	}
	return studies[0], true
}

// FindSeriesForDisplay returns the series of a study to propagate downstream.
// sort, when given, orders a copy of the series list; the series UID filter
// aliases then restrict the result. Filter keys that are not series UID
// aliases are ignored. ok is false when the study is not cached.
func (x *Index) FindSeriesForDisplay(studyUID string, filters types.Filters, sort SortFunc) (series []*types.Series, ok bool) {
	study, ok := x.FindStudy(studyUID)
	if !ok {
		return nil, false
	}

	series = append([]*types.Series(nil), study.Series...)
	if sort != nil {
		series = sort(series)
	}

	uids, filtered := filters.SeriesUIDs()
	if !filtered {
		return series, true
	}

	wanted := make(map[string]bool, len(uids))
	for _, uid := range uids {
		wanted[uid] = true
	}
	kept := series[:0:0]
	for _, s := range series {
		if wanted[s.SeriesInstanceUID()] {
			kept = append(kept, s)
		}
	}
	return kept, true
}

// Series returns one series of a cached study.
func (x *Index) Series(studyUID, seriesUID string) (*types.Series, bool) {
	study, ok := x.FindStudy(studyUID)
	if !ok {
		return nil, false
	}
	for _, s := range study.Series {
		if s.SeriesInstanceUID() == seriesUID {
			return s, true
		}
	}
	return nil, false
}

// URLsForStudy lists the cached URLs whose entry contains studyUID.
func (x *Index) URLsForStudy(studyUID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var urls []string
	for _, entry := range x.entries {
		for _, uid := range x.uids[entry.URL] {
			if uid == studyUID {
				urls = append(urls, entry.URL)
				break
			}
		}
	}
	return urls
}

// URLs lists the cached source URLs in insertion order.
func (x *Index) URLs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	urls := make([]string, len(x.entries))
	for i, entry := range x.entries {
		urls[i] = entry.URL
	}
	return urls
}

// Len returns the number of cached URLs.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Reset drops every cached entry. It ends the session's cache lifetime.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = nil
	x.byURL = make(map[string]int)
	x.uids = make(map[string][]string)
}
