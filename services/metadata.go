package services

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/caio-sobreiro/dicomjson/types"
)

// EventKind identifies a call recorded by MetadataStore.
type EventKind uint8

const (
	EventSeriesAdded EventKind = iota + 1
	EventInstancesAdded
	EventStudyLoaded
)

func (k EventKind) String() string {
	switch k {
	case EventSeriesAdded:
		return "series_added"
	case EventInstancesAdded:
		return "instances_added"
	case EventStudyLoaded:
		return "study_loaded"
	default:
		return "unknown"
	}
}

// Event is one entry of the store's ordered log.
type Event struct {
	Kind              EventKind
	StudyInstanceUID  string
	SeriesInstanceUID string
	Count             int
}

// StudyView is what the store holds for one study.
type StudyView struct {
	StudyInstanceUID string                        `json:"StudyInstanceUID"`
	Series           []types.SeriesSummary         `json:"series"`
	Instances        map[string][]types.Attributes `json:"instances"`
	IsLoaded         bool                          `json:"isLoaded"`
}

// MetadataStore is an in-memory downstream store. It keeps the last view of
// every study it was told about and an ordered log of the calls it received.
type MetadataStore struct {
	mu      sync.Mutex
	studies map[string]*StudyView
	events  []Event
	logger  zerolog.Logger
}

// StoreOption configures a MetadataStore.
type StoreOption func(*MetadataStore)

// WithStoreLogger sets the logger used for store traces.
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *MetadataStore) {
		s.logger = logger
	}
}

// NewMetadataStore creates an empty store.
func NewMetadataStore(opts ...StoreOption) *MetadataStore {
	s := &MetadataStore{
		studies: make(map[string]*StudyView),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MetadataStore) view(studyUID string) *StudyView {
	v, ok := s.studies[studyUID]
	if !ok {
		v = &StudyView{
			StudyInstanceUID: studyUID,
			Instances:        make(map[string][]types.Attributes),
		}
		s.studies[studyUID] = v
	}
	return v
}

// AddSeriesMetadata records series summaries. A series seen again replaces
// its earlier summary.
func (s *MetadataStore) AddSeriesMetadata(series []types.SeriesSummary, madeInClient bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, summary := range series {
		v := s.view(summary.StudyInstanceUID)
		replaced := false
		for i := range v.Series {
			if v.Series[i].SeriesInstanceUID() == summary.SeriesInstanceUID() {
				v.Series[i] = summary
				replaced = true
				break
			}
		}
		if !replaced {
			v.Series = append(v.Series, summary)
		}
		s.events = append(s.events, Event{
			Kind:              EventSeriesAdded,
			StudyInstanceUID:  summary.StudyInstanceUID,
			SeriesInstanceUID: summary.SeriesInstanceUID(),
			Count:             1,
		})
	}

	s.logger.Debug().Int("series", len(series)).Bool("made_in_client", madeInClient).Msg("Series metadata added")
}

// AddInstances records the instance records of one series.
func (s *MetadataStore) AddInstances(instances []types.Attributes, madeInClient bool) {
	if len(instances) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	studyUID := instances[0].String("StudyInstanceUID")
	seriesUID := instances[0].String("SeriesInstanceUID")
	v := s.view(studyUID)
	v.Instances[seriesUID] = append([]types.Attributes(nil), instances...)

	s.events = append(s.events, Event{
		Kind:              EventInstancesAdded,
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		Count:             len(instances),
	})

	s.logger.Debug().
		Str("series_instance_uid", seriesUID).
		Int("instances", len(instances)).
		Bool("made_in_client", madeInClient).
		Msg("Instances added")
}

// MarkStudyLoaded sets the study's isLoaded flag.
func (s *MetadataStore) MarkStudyLoaded(studyUID string, loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view(studyUID).IsLoaded = loaded
	s.events = append(s.events, Event{Kind: EventStudyLoaded, StudyInstanceUID: studyUID})
}

// Study returns a copy of what the store holds for studyUID.
func (s *MetadataStore) Study(studyUID string) (StudyView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.studies[studyUID]
	if !ok {
		return StudyView{}, false
	}
	out := StudyView{
		StudyInstanceUID: v.StudyInstanceUID,
		Series:           append([]types.SeriesSummary(nil), v.Series...),
		Instances:        make(map[string][]types.Attributes, len(v.Instances)),
		IsLoaded:         v.IsLoaded,
	}
	for k, records := range v.Instances {
		out.Instances[k] = append([]types.Attributes(nil), records...)
	}
	return out, true
}

// IsLoaded reports whether a study was marked loaded.
func (s *MetadataStore) IsLoaded(studyUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.studies[studyUID]
	return ok && v.IsLoaded
}

// Events returns a copy of the call log in arrival order.
func (s *MetadataStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
