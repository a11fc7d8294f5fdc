// Package datasource composes the metadata index, ingestion, propagation
// and upload into the data source a viewer talks to.
package datasource

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/caio-sobreiro/dicomjson/client"
	"github.com/caio-sobreiro/dicomjson/dicom"
	"github.com/caio-sobreiro/dicomjson/index"
	"github.com/caio-sobreiro/dicomjson/ingest"
	"github.com/caio-sobreiro/dicomjson/interfaces"
	"github.com/caio-sobreiro/dicomjson/types"
)

// Deps are the collaborators a DataSource is built from. Index, Fetcher and
// Store are required; the rest default.
type Deps struct {
	Index    *index.Index
	Fetcher  interfaces.Fetcher
	Registry interfaces.UIDRegistry
	Store    interfaces.MetadataStore
	Encoder  *dicom.Encoder

	// Upload configures the store client created when the source URL
	// carries routing context.
	Upload client.Config
}

// Option configures a DataSource.
type Option func(*DataSource)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *DataSource) {
		d.logger = logger
	}
}

// WithConcurrency bounds how many series are propagated at once. Zero or
// less means no bound.
func WithConcurrency(n int) Option {
	return func(d *DataSource) {
		d.concurrency = n
	}
}

// DataSource is one viewer session over the JSON study lists it has
// ingested.
type DataSource struct {
	cfg         types.SourceConfig
	index       *index.Index
	pipeline    *ingest.Pipeline
	store       interfaces.MetadataStore
	encoder     *dicom.Encoder
	upload      client.Config
	logger      zerolog.Logger
	concurrency int

	mu       sync.RWMutex
	uploader *client.StoreClient
}

// New creates a data source. The index in deps is owned by the caller and
// outlives Close only if the caller keeps it.
func New(cfg types.SourceConfig, deps Deps, opts ...Option) *DataSource {
	d := &DataSource{
		cfg:     cfg,
		index:   deps.Index,
		store:   deps.Store,
		encoder: deps.Encoder,
		upload:  deps.Upload,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.index == nil {
		d.index = index.New()
	}
	if d.encoder == nil {
		d.encoder = dicom.NewEncoder(dicom.WithLogger(d.logger))
	}
	if d.upload.Logger == nil {
		d.upload.Logger = &d.logger
	}
	d.pipeline = ingest.New(d.index, deps.Fetcher, deps.Registry, cfg, ingest.WithLogger(d.logger))
	return d
}

// Initialize derives the upload routing context from url and ingests it.
// It returns the StudyInstanceUIDs the URL resolved to.
func (d *DataSource) Initialize(ctx context.Context, url string) ([]string, error) {
	rc, ok := client.ParseRoutingContext(url)

	d.mu.Lock()
	if ok {
		d.uploader = client.NewStoreClient(rc, d.upload)
	} else {
		d.uploader = nil
	}
	d.mu.Unlock()

	if ok {
		d.logger.Info().
			Str("endpoint", rc.Endpoint).
			Str("branch_id", rc.BranchID).
			Str("study_date", rc.StudyDate).
			Msg("Uploads enabled")
	} else {
		d.logger.Info().Str("url", url).Msg("Source URL has no routing context, uploads disabled")
	}

	return d.pipeline.Ingest(ctx, url)
}

// Routing returns the upload target of the session. ok is false when
// uploads are disabled.
func (d *DataSource) Routing() (rc client.RoutingContext, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.uploader == nil {
		return client.RoutingContext{}, false
	}
	return d.uploader.Routing(), true
}

// Search returns the summaries of cached studies whose attribute equals
// value. key is a search parameter name such as "patientId" or the
// attribute name itself; unsupported keys match nothing.
func (d *DataSource) Search(key, value string) []types.StudySummary {
	attr, ok := types.SearchAttribute(key)
	if !ok {
		d.logger.Debug().Str("key", key).Msg("Unsupported search key")
		return nil
	}

	studies := d.index.FindStudies(attr, types.String(value))
	summaries := make([]types.StudySummary, 0, len(studies))
	for _, study := range studies {
		summaries = append(summaries, study.Summary())
	}
	return summaries
}

// StudyInstanceUIDs returns the StudyInstanceUIDs a cached URL resolved to.
func (d *DataSource) StudyInstanceUIDs(url string) ([]string, bool) {
	return d.index.StudyUIDs(url)
}

// Index exposes the session's metadata index.
func (d *DataSource) Index() *index.Index {
	return d.index
}

// State reports where url is in the ingestion lifecycle.
func (d *DataSource) State(url string) ingest.State {
	return d.pipeline.State(url)
}

// Close ends the session: cached studies are dropped and uploads disabled.
func (d *DataSource) Close() {
	d.mu.Lock()
	d.uploader = nil
	d.mu.Unlock()
	d.index.Reset()
}
