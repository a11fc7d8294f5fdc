package services

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/caio-sobreiro/dicomjson/interfaces"
)

// ImageIDRegistry maps synthesized image ids to the UIDs of the instance
// they address.
//
// The ingestion pipeline registers every instance before the study becomes
// visible in the index, so a renderer holding an image id can always resolve
// it back to its study, series and SOP instance.
//
// Example usage:
//
//	registry := services.NewImageIDRegistry()
//	pipeline := ingest.New(idx, fetcher, registry, cfg)
//
//	// Later, from a renderer:
//	uids, ok := registry.Lookup(imageID)
type ImageIDRegistry struct {
	mu     sync.RWMutex
	byID   map[string]interfaces.UIDs
	logger zerolog.Logger
}

// RegistryOption configures an ImageIDRegistry.
type RegistryOption func(*ImageIDRegistry)

// WithRegistryLogger sets the logger used for registration traces.
func WithRegistryLogger(logger zerolog.Logger) RegistryOption {
	return func(r *ImageIDRegistry) {
		r.logger = logger
	}
}

// NewImageIDRegistry creates an empty registry.
func NewImageIDRegistry(opts ...RegistryOption) *ImageIDRegistry {
	r := &ImageIDRegistry{
		byID:   make(map[string]interfaces.UIDs),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddImageIDToUIDs registers an image id. Registering the same id again
// replaces the previous UIDs.
func (r *ImageIDRegistry) AddImageIDToUIDs(imageID string, uids interfaces.UIDs) {
	r.mu.Lock()
	r.byID[imageID] = uids
	r.mu.Unlock()

	r.logger.Trace().
		Str("image_id", imageID).
		Str("sop_instance_uid", uids.SOPInstanceUID).
		Msg("Registered image id")
}

// Lookup returns the UIDs registered for imageID.
func (r *ImageIDRegistry) Lookup(imageID string) (interfaces.UIDs, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uids, ok := r.byID[imageID]
	return uids, ok
}

// ImageIDs returns every image id registered for a SOP instance, sorted.
func (r *ImageIDRegistry) ImageIDs(sopInstanceUID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, uids := range r.byID {
		if uids.SOPInstanceUID == sopInstanceUID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered image ids.
func (r *ImageIDRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
