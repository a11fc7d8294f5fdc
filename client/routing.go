package client

import (
	"net/url"
	"regexp"
)

// sourcePathPattern matches /dicoms/{branch}/{date}/{study}/{file}.json at
// the end of a source URL path.
var sourcePathPattern = regexp.MustCompile(`/dicoms/([^/]+)/([^/]+)/([^/]+)/([^/]+)\.json$`)

// RoutingContext is the upload target derived from a source URL.
type RoutingContext struct {
	Endpoint  string
	BranchID  string
	StudyDate string
}

// ParseRoutingContext extracts the upload target from rawURL. ok is false
// when the URL does not follow the /dicoms/ layout, which disables uploads
// for the session.
func ParseRoutingContext(rawURL string) (rc RoutingContext, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return RoutingContext{}, false
	}

	m := sourcePathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return RoutingContext{}, false
	}

	return RoutingContext{
		Endpoint:  u.Scheme + "://" + u.Host,
		BranchID:  m[1],
		StudyDate: m[2],
	}, true
}

// StorePath returns the upload path for one instance.
func (rc RoutingContext) StorePath(studyUID, seriesUID, sopUID string) string {
	return rc.Endpoint + "/dicoms/" +
		url.PathEscape(rc.BranchID) + "/" +
		url.PathEscape(rc.StudyDate) + "/" +
		url.PathEscape(studyUID) + "/" +
		url.PathEscape(seriesUID) + "/" +
		url.PathEscape(sopUID)
}
