package ingest

// State is where a source URL is in the ingestion lifecycle.
type State uint8

const (
	StateUncached State = iota
	StateFetching
	StateParsed
	StateIndexed
	StatePropagated
)

func (s State) String() string {
	switch s {
	case StateUncached:
		return "uncached"
	case StateFetching:
		return "fetching"
	case StateParsed:
		return "parsed"
	case StateIndexed:
		return "indexed"
	case StatePropagated:
		return "propagated"
	default:
		return "unknown"
	}
}
