// Package interfaces contains the collaborator interfaces the data source
// depends on.
package interfaces

import (
	"context"
	"net/http"
)

// AuthHeaderProvider supplies the authorization headers attached to
// outbound fetch and upload requests.
type AuthHeaderProvider interface {
	AuthorizationHeader(ctx context.Context) (http.Header, error)
}

// UIDs identifies the instance an image id points at.
type UIDs struct {
	StudyInstanceUID  string `json:"StudyInstanceUID"`
	SeriesInstanceUID string `json:"SeriesInstanceUID"`
	SOPInstanceUID    string `json:"SOPInstanceUID"`
}

// UIDRegistry maps synthesized image ids back to their instance UIDs.
type UIDRegistry interface {
	AddImageIDToUIDs(imageID string, uids UIDs)
}
