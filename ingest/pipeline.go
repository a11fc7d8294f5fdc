// Package ingest fetches study payloads, registers their image ids and
// installs them in the metadata index.
package ingest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/imageid"
	"github.com/caio-sobreiro/dicomjson/index"
	"github.com/caio-sobreiro/dicomjson/interfaces"
	"github.com/caio-sobreiro/dicomjson/types"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for state transitions.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline drives a source URL from Uncached to Indexed.
//
// Concurrent Ingest calls for the same uncached URL share one fetch; the
// later callers wait for the first and receive its result.
type Pipeline struct {
	index    *index.Index
	fetcher  interfaces.Fetcher
	registry interfaces.UIDRegistry
	cfg      types.SourceConfig
	logger   zerolog.Logger

	inflight singleflight.Group

	mu     sync.Mutex
	states map[string]State
}

// New creates a pipeline writing into idx.
func New(idx *index.Index, fetcher interfaces.Fetcher, registry interfaces.UIDRegistry, cfg types.SourceConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:    idx,
		fetcher:  fetcher,
		registry: registry,
		cfg:      cfg,
		logger:   zerolog.Nop(),
		states:   make(map[string]State),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// payload is the inbound document shape. Studies is a pointer so an absent
// key can be told apart from an empty list.
type payload struct {
	Studies *[]*types.Study `json:"studies"`
}

// Ingest makes sure url is indexed and returns the StudyInstanceUIDs it
// resolved to. A URL already in the index is not fetched again.
func (p *Pipeline) Ingest(ctx context.Context, url string) ([]string, error) {
	if uids, ok := p.index.StudyUIDs(url); ok {
		p.logger.Debug().Str("url", url).Msg("Study list cache hit")
		return uids, nil
	}

	v, err, shared := p.inflight.Do(url, func() (any, error) {
		if uids, ok := p.index.StudyUIDs(url); ok {
			return uids, nil
		}
		return p.run(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug().Str("url", url).Msg("Joined in-flight ingestion")
	}
	return append([]string(nil), v.([]string)...), nil
}

func (p *Pipeline) run(ctx context.Context, url string) ([]string, error) {
	p.transition(url, StateFetching)
	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.transition(url, StateUncached)
		return nil, err
	}

	studies, err := Parse(url, data)
	if err != nil {
		p.transition(url, StateUncached)
		return nil, err
	}
	p.transition(url, StateParsed)

	registered := p.register(studies)

	p.index.Upsert(url, studies)
	p.transition(url, StateIndexed)

	p.logger.Info().
		Str("url", url).
		Int("studies", len(studies)).
		Int("image_ids", registered).
		Msg("Study list indexed")

	uids, _ := p.index.StudyUIDs(url)
	return uids, nil
}

// register hands every instance's image ids to the UID registry and
// returns how many were registered.
func (p *Pipeline) register(studies []*types.Study) int {
	if p.registry == nil {
		return 0
	}
	n := 0
	for _, study := range studies {
		for _, series := range study.Series {
			for _, inst := range series.Instances {
				uids := interfaces.UIDs{
					StudyInstanceUID:  study.StudyInstanceUID(),
					SeriesInstanceUID: series.SeriesInstanceUID(),
					SOPInstanceUID:    inst.SOPInstanceUID(),
				}
				for _, id := range registeredIDs(withParentUIDs(inst, uids), p.cfg) {
					p.registry.AddImageIDToUIDs(id, uids)
					n++
				}
			}
		}
	}
	return n
}

// registeredIDs is every id an instance can be addressed by: its per-frame
// ids and the frameless id attached to propagated records.
func registeredIDs(inst *types.Instance, cfg types.SourceConfig) []string {
	ids := imageid.ForInstance(inst, cfg)
	if len(ids) > 1 {
		if id := imageid.Synthesize(inst, 0, cfg); id != ids[0] {
			ids = append(ids, id)
		}
	}
	return ids
}

// withParentUIDs fills in study and series UIDs the instance metadata may
// leave to its containers.
func withParentUIDs(inst *types.Instance, uids interfaces.UIDs) *types.Instance {
	m := inst.Metadata
	if m.String("StudyInstanceUID") != "" && m.String("SeriesInstanceUID") != "" {
		return inst
	}
	filled := m.Clone()
	if filled.String("StudyInstanceUID") == "" {
		filled["StudyInstanceUID"] = types.String(uids.StudyInstanceUID)
	}
	if filled.String("SeriesInstanceUID") == "" {
		filled["SeriesInstanceUID"] = types.String(uids.SeriesInstanceUID)
	}
	return &types.Instance{Metadata: filled, URL: inst.URL}
}

// MarkPropagated records that a cached URL's studies were pushed downstream.
// URLs that are not indexed keep their state.
func (p *Pipeline) MarkPropagated(url string) {
	if _, ok := p.index.LookupByURL(url); !ok {
		return
	}
	p.transition(url, StatePropagated)
}

// State reports where url is in the lifecycle.
func (p *Pipeline) State(url string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.states[url]; ok {
		return s
	}
	if _, ok := p.index.LookupByURL(url); ok {
		return StateIndexed
	}
	return StateUncached
}

func (p *Pipeline) transition(url string, to State) {
	p.mu.Lock()
	from := p.states[url]
	p.states[url] = to
	p.mu.Unlock()

	p.logger.Debug().
		Str("url", url).
		Stringer("from", from).
		Stringer("to", to).
		Msg("Ingestion state changed")
}

// Parse decodes a study list payload. A document without a studies array
// is a ParseError.
func Parse(url string, data []byte) ([]*types.Study, error) {
	var doc payload
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, dicomerrors.NewParseError(url, "invalid JSON", err)
	}
	if doc.Studies == nil {
		return nil, dicomerrors.NewParseError(url, "missing studies array", nil)
	}

	studies := make([]*types.Study, 0, len(*doc.Studies))
	for _, study := range *doc.Studies {
		if study == nil {
			return nil, dicomerrors.NewParseError(url, "null study entry", nil)
		}
		studies = append(studies, study)
	}
	return studies, nil
}
