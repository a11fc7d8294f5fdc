package types

import (
	"encoding/json"
	"fmt"
)

// Container keys that hold the next level of the hierarchy.
const (
	SeriesKey    = "series"
	InstancesKey = "instances"
)

// Instance is a single naturalized dataset plus the location it is served from.
type Instance struct {
	Metadata Attributes `json:"metadata"`
	URL      string     `json:"url,omitempty"`
}

// SOPInstanceUID returns the instance UID from the metadata.
func (i *Instance) SOPInstanceUID() string {
	return i.Metadata.String("SOPInstanceUID")
}

// NumberOfFrames returns the frame count, 0 when the attribute is absent.
func (i *Instance) NumberOfFrames() int {
	return i.Metadata.Int("NumberOfFrames")
}

// Series is a sub-acquisition within a study.
type Series struct {
	Attributes Attributes
	Instances  []*Instance
}

// SeriesInstanceUID returns the series UID.
func (s *Series) SeriesInstanceUID() string {
	return s.Attributes.String("SeriesInstanceUID")
}

// UnmarshalJSON splits the series object into its attributes and instances.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Attributes = make(Attributes, len(raw))
	s.Instances = nil
	for key, msg := range raw {
		if key == InstancesKey {
			if err := json.Unmarshal(msg, &s.Instances); err != nil {
				return fmt.Errorf("series instances: %w", err)
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("series attribute %s: %w", key, err)
		}
		s.Attributes[key] = v
	}
	return nil
}

// MarshalJSON emits the attributes with the instances under "instances".
func (s *Series) MarshalJSON() ([]byte, error) {
	out := s.Attributes.Natural()
	out[InstancesKey] = s.Instances
	return json.Marshal(out)
}

// Study is the top level of the hierarchy.
type Study struct {
	Attributes Attributes
	Series     []*Series
}

// StudyInstanceUID returns the study UID.
func (s *Study) StudyInstanceUID() string {
	return s.Attributes.String("StudyInstanceUID")
}

// UnmarshalJSON splits the study object into its attributes and series.
func (s *Study) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Attributes = make(Attributes, len(raw))
	s.Series = nil
	for key, msg := range raw {
		if key == SeriesKey {
			if err := json.Unmarshal(msg, &s.Series); err != nil {
				return fmt.Errorf("study series: %w", err)
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("study attribute %s: %w", key, err)
		}
		s.Attributes[key] = v
	}
	return nil
}

// MarshalJSON emits the attributes with the series under "series".
func (s *Study) MarshalJSON() ([]byte, error) {
	out := s.Attributes.Natural()
	out[SeriesKey] = s.Series
	return json.Marshal(out)
}

// Summary projects the study onto the search result shape.
func (s *Study) Summary() StudySummary {
	a := s.Attributes
	return StudySummary{
		Accession:        a.String("AccessionNumber"),
		Date:             a.String("StudyDate"),
		Description:      a.String("StudyDescription"),
		Instances:        a.Int("NumInstances"),
		Modalities:       a.String("Modalities"),
		MRN:              a.String("PatientID"),
		PatientName:      a.String("PatientName"),
		StudyInstanceUID: a.String("StudyInstanceUID"),
		NumInstances:     a.Int("NumInstances"),
		Time:             a.String("StudyTime"),
	}
}

// StudySummary is one row of a study search.
type StudySummary struct {
	Accession        string `json:"accession"`
	Date             string `json:"date"`
	Description      string `json:"description"`
	Instances        int    `json:"instances"`
	Modalities       string `json:"modalities"`
	MRN              string `json:"mrn"`
	PatientName      string `json:"patientName"`
	StudyInstanceUID string `json:"studyInstanceUid"`
	NumInstances     int    `json:"NumInstances"`
	Time             string `json:"time"`
}

// CacheEntry is the set of studies a source URL resolved to.
type CacheEntry struct {
	URL     string
	Studies []*Study
}

// StudyInstanceUIDs lists the UIDs of the entry's studies in order.
func (e CacheEntry) StudyInstanceUIDs() []string {
	uids := make([]string, len(e.Studies))
	for i, s := range e.Studies {
		uids[i] = s.StudyInstanceUID()
	}
	return uids
}

// Rendering modes for SourceConfig.
const (
	RenderingWADOURI = "wadouri"
	RenderingWADORS  = "wadors"
)

// SourceConfig carries the data source settings image ids are derived from.
type SourceConfig struct {
	WadoRoot           string `json:"wadoRoot,omitempty"`
	WadoURIRoot        string `json:"wadoUriRoot,omitempty"`
	ImageRendering     string `json:"imageRendering,omitempty"`
	ThumbnailRendering string `json:"thumbnailRendering,omitempty"`
}
