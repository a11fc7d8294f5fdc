package types

import "encoding/json"

// Search parameter names accepted by study search and the attribute each maps to.
var SearchParamMappings = map[string]string{
	"studyInstanceUid": "StudyInstanceUID",
	"patientId":        "PatientID",
}

// SeriesFilterKeys are the filter names that restrict a retrieval to a set of
// series UIDs, in lookup order.
var SeriesFilterKeys = []string{
	"SeriesInstanceUID",
	"SeriesInstanceUIDs",
	"seriesInstanceUID",
	"seriesInstanceUIDs",
}

// Filters are retrieval options keyed by filter name.
type Filters map[string][]string

// SeriesUIDs returns the series UID filter, if any alias is set. An alias
// set to an empty list is a filter that matches no series; a nil list is
// treated as unset.
func (f Filters) SeriesUIDs() ([]string, bool) {
	for _, key := range SeriesFilterKeys {
		if uids, ok := f[key]; ok && uids != nil {
			return uids, true
		}
	}
	return nil, false
}

// SearchAttribute resolves a search parameter name to the study attribute it
// queries. Canonical attribute names resolve to themselves.
func SearchAttribute(param string) (string, bool) {
	if mapped, ok := SearchParamMappings[param]; ok {
		return mapped, true
	}
	for _, attr := range SearchParamMappings {
		if attr == param {
			return attr, true
		}
	}
	return "", false
}

// SeriesSummary is the metadata pushed downstream for a series, without its instances.
type SeriesSummary struct {
	StudyInstanceUID string
	Attributes       Attributes
}

// SeriesInstanceUID returns the series UID.
func (s SeriesSummary) SeriesInstanceUID() string {
	return s.Attributes.String("SeriesInstanceUID")
}

// MarshalJSON emits the series attributes with the study UID alongside.
func (s SeriesSummary) MarshalJSON() ([]byte, error) {
	out := s.Attributes.Natural()
	out["StudyInstanceUID"] = s.StudyInstanceUID
	return json.Marshal(out)
}

// DisplaySet is the subset of a display set needed to enumerate its image ids.
type DisplaySet struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	Images            []*Instance
}
