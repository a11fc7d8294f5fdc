package interfaces

import (
	"context"

	"github.com/caio-sobreiro/dicomjson/types"
)

// Fetcher retrieves the raw study payload published at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MetadataStore is the downstream consumer of propagated study metadata.
//
// Implementations must tolerate concurrent AddInstances calls for different
// series of the same study.
type MetadataStore interface {
	// AddSeriesMetadata receives the series summaries of a study, without
	// their instances.
	AddSeriesMetadata(series []types.SeriesSummary, madeInClient bool)

	// AddInstances receives the merged instance records of one series.
	AddInstances(instances []types.Attributes, madeInClient bool)

	// MarkStudyLoaded flags a study once all of its series were observed.
	MarkStudyLoaded(studyInstanceUID string, loaded bool)
}
