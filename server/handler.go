package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/caio-sobreiro/dicomjson/datasource"
	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/ingest"
	"github.com/caio-sobreiro/dicomjson/services"
	"github.com/caio-sobreiro/dicomjson/types"
)

// maxStoreBody bounds an uploaded instance.
const maxStoreBody = 64 << 20

// Handler exposes a DataSource over HTTP.
type Handler struct {
	ds       *datasource.DataSource
	store    *services.MetadataStore
	registry *services.ImageIDRegistry
}

// NewHandler creates a handler. store and registry back the read-only
// study view and image id lookup routes.
func NewHandler(ds *datasource.DataSource, store *services.MetadataStore, registry *services.ImageIDRegistry) *Handler {
	return &Handler{ds: ds, store: store, registry: registry}
}

// RegisterRoutes registers the data source routes. protect wraps the
// routes that upload.
func (h *Handler) RegisterRoutes(g *echo.Group, protect ...echo.MiddlewareFunc) {
	g.POST("/initialize", h.Initialize)
	g.GET("/studies", h.Search)
	g.GET("/studies/:study", h.StudyView)
	g.POST("/studies/:study/series/metadata", h.RetrieveSeriesMetadata)
	g.GET("/studies/:study/series/:series/imageids", h.SeriesImageIDs)
	g.GET("/studies/:study/series/:series/thumbnail", h.SeriesThumbnail)
	g.GET("/instances/:sop/imageids", h.InstanceImageIDs)
	g.GET("/imageids", h.LookupImageID)
	g.GET("/source/studies", h.SourceStudyUIDs)
	g.POST("/store", h.Store, protect...)
}

type initializeRequest struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type initializeResponse struct {
	StudyInstanceUIDs []string `json:"studyInstanceUIDs"`
	UploadsEnabled    bool     `json:"uploadsEnabled"`
}

// Initialize ingests the source URL given in the body or the query string.
func (h *Handler) Initialize(c echo.Context) error {
	var req initializeRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
	}

	query := url.Values{}
	for k, v := range c.QueryParams() {
		query[k] = v
	}
	if req.URL != "" {
		query.Set(ingest.URLParam, req.URL)
	}
	if req.ID != "" {
		query.Set(ingest.IDParam, req.ID)
	}

	source, err := ingest.ResolveURL(query)
	if err != nil {
		return errorResponse(c, err)
	}

	uids, err := h.ds.Initialize(c.Request().Context(), source)
	if err != nil {
		return errorResponse(c, err)
	}
	_, enabled := h.ds.Routing()
	return c.JSON(http.StatusOK, initializeResponse{StudyInstanceUIDs: uids, UploadsEnabled: enabled})
}

// Search matches the first supported query parameter against cached
// studies.
func (h *Handler) Search(c echo.Context) error {
	for key, values := range c.QueryParams() {
		if _, ok := types.SearchAttribute(key); ok && len(values) > 0 {
			return c.JSON(http.StatusOK, h.ds.Search(key, values[0]))
		}
	}
	return c.JSON(http.StatusOK, []types.StudySummary{})
}

type retrieveRequest struct {
	Filters      types.Filters `json:"filters"`
	MadeInClient bool          `json:"madeInClient"`
}

// RetrieveSeriesMetadata propagates a study's series to the metadata store.
func (h *Handler) RetrieveSeriesMetadata(c echo.Context) error {
	var req retrieveRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
	}

	err := h.ds.RetrieveSeriesMetadata(c.Request().Context(), datasource.SeriesRequest{
		StudyInstanceUID: c.Param("study"),
		Filters:          req.Filters,
		MadeInClient:     req.MadeInClient,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StudyView returns what the metadata store holds for a study.
func (h *Handler) StudyView(c echo.Context) error {
	view, ok := h.store.Study(c.Param("study"))
	if !ok {
		return errorResponse(c, dicomerrors.ErrStudyNotFound)
	}
	return c.JSON(http.StatusOK, view)
}

// SeriesImageIDs lists the image ids of a cached series.
func (h *Handler) SeriesImageIDs(c echo.Context) error {
	studyUID, seriesUID := c.Param("study"), c.Param("series")
	series, ok := h.ds.Index().Series(studyUID, seriesUID)
	if !ok {
		return errorResponse(c, dicomerrors.ErrStudyNotFound)
	}
	ids := h.ds.ImageIDsForDisplaySet(types.DisplaySet{
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		Images:            series.Instances,
	})
	return c.JSON(http.StatusOK, map[string][]string{"imageIds": ids})
}

// SeriesThumbnail returns the thumbnail image id of a cached series.
func (h *Handler) SeriesThumbnail(c echo.Context) error {
	studyUID, seriesUID := c.Param("study"), c.Param("series")
	series, ok := h.ds.Index().Series(studyUID, seriesUID)
	if !ok {
		return errorResponse(c, dicomerrors.ErrStudyNotFound)
	}
	id := h.ds.ThumbnailImageID(types.DisplaySet{
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		Images:            series.Instances,
	})
	return c.JSON(http.StatusOK, map[string]string{"imageId": id})
}

// InstanceImageIDs lists every image id registered for a SOP instance.
func (h *Handler) InstanceImageIDs(c echo.Context) error {
	ids := h.registry.ImageIDs(c.Param("sop"))
	if len(ids) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no image ids registered"})
	}
	return c.JSON(http.StatusOK, map[string][]string{"imageIds": ids})
}

// LookupImageID resolves an image id back to its UIDs.
func (h *Handler) LookupImageID(c echo.Context) error {
	id := c.QueryParam("imageId")
	if id == "" {
		return errorResponse(c, dicomerrors.NewMissingParameterError("look up image id", "imageId"))
	}
	uids, ok := h.registry.Lookup(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "image id not registered"})
	}
	return c.JSON(http.StatusOK, uids)
}

// SourceStudyUIDs returns the StudyInstanceUIDs a cached source URL
// resolved to.
func (h *Handler) SourceStudyUIDs(c echo.Context) error {
	source, err := ingest.ResolveURL(c.QueryParams())
	if err != nil {
		return errorResponse(c, err)
	}
	uids, ok := h.ds.StudyInstanceUIDs(source)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "source not cached"})
	}
	return c.JSON(http.StatusOK, map[string][]string{"studyInstanceUIDs": uids})
}

// Store uploads an instance. An application/dicom body is passed through;
// a JSON body is a naturalized dataset to encode.
func (h *Handler) Store(c echo.Context) error {
	var in datasource.StoreInput

	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	switch mediaType {
	case "application/dicom", echo.MIMEOctetStream:
		buf, err := io.ReadAll(io.LimitReader(c.Request().Body, maxStoreBody))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unable to read body"})
		}
		in.Buffer = buf
	case echo.MIMEApplicationJSON:
		var attrs types.Attributes
		if err := json.NewDecoder(io.LimitReader(c.Request().Body, maxStoreBody)).Decode(&attrs); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid dataset"})
		}
		in.Dataset = attrs
	default:
		return c.JSON(http.StatusUnsupportedMediaType, map[string]string{"error": "expected application/dicom or application/json"})
	}

	stored, err := h.ds.StoreDICOM(c.Request().Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"stored": stored})
}

// Health reports liveness.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorResponse(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, dicomerrors.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, dicomerrors.ErrStudyNotFound):
		return http.StatusNotFound
	case errors.Is(err, dicomerrors.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dicomerrors.ErrMalformedPayload),
		errors.Is(err, dicomerrors.ErrFetchFailed),
		errors.Is(err, dicomerrors.ErrStoreFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
