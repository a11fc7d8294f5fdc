// Package client uploads encoded instances to the endpoint a session's
// source URL points at.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/rs/zerolog"

	"github.com/caio-sobreiro/dicomjson/dicom"
	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/interfaces"
	"github.com/caio-sobreiro/dicomjson/types"
)

// Multipart form field and content type of an uploaded instance.
const (
	FormField           = "DicomMeasurementFile"
	DICOMContentType    = "application/dicom"
	defaultStoreTimeout = 60 * time.Second
)

// Config holds store client configuration
type Config struct {
	Timeout    time.Duration                 // Timeout for one upload (default: 60s)
	HTTPClient *http.Client                  // Client to upload with (default: one with Timeout)
	Auth       interfaces.AuthHeaderProvider // Authorization headers (default: none)
	Logger     *zerolog.Logger               // Logger (default: zerolog.Nop())
}

// StoreClient posts Part10 buffers to an upload endpoint.
type StoreClient struct {
	routing RoutingContext
	client  *http.Client
	auth    interfaces.AuthHeaderProvider
	logger  zerolog.Logger
}

// NewStoreClient creates a client uploading under rc.
func NewStoreClient(rc RoutingContext, config Config) *StoreClient {
	if config.Timeout == 0 {
		config.Timeout = defaultStoreTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &StoreClient{
		routing: rc,
		client:  config.HTTPClient,
		auth:    config.Auth,
		logger:  logger,
	}
}

// Routing returns the target the client uploads under.
func (c *StoreClient) Routing() RoutingContext {
	return c.routing
}

// Store uploads one Part10 buffer. The instance UIDs are read from the
// buffer; the file is named after its SOPInstanceUID. Failures are not
// retried.
func (c *StoreClient) Store(ctx context.Context, buf []byte) error {
	ids, err := dicom.ReadIdentifiers(buf)
	if err != nil {
		return err
	}
	if ids.SOPInstanceUID == "" {
		return dicomerrors.NewMissingParameterError("store instance", "SOPInstanceUID")
	}

	target := c.routing.StorePath(ids.StudyInstanceUID, ids.SeriesInstanceUID, ids.SOPInstanceUID)
	if !types.IsStorageSOPClass(ids.SOPClassUID) {
		c.logger.Warn().
			Str("sop_instance_uid", ids.SOPInstanceUID).
			Str("sop_class_uid", ids.SOPClassUID).
			Msg("Uploading an unrecognized storage SOP class")
	}

	body, contentType, err := multipartBody(ids.SOPInstanceUID, buf)
	if err != nil {
		return dicomerrors.NewStoreError(target, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return dicomerrors.NewStoreError(target, 0, err)
	}
	req.Header.Set("Content-Type", contentType)

	if c.auth != nil {
		headers, err := c.auth.AuthorizationHeader(ctx)
		if err != nil {
			return dicomerrors.NewStoreError(target, 0, fmt.Errorf("authorization: %w", err))
		}
		for key, values := range headers {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return dicomerrors.NewStoreError(target, 0, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str("target", target).
			Int("status", resp.StatusCode).
			Msg("Upload rejected")
		return dicomerrors.NewStoreError(target, resp.StatusCode, nil)
	}

	c.logger.Debug().
		Str("target", target).
		Str("sop_instance_uid", ids.SOPInstanceUID).
		Str("sop_class", types.GetSOPClassInfo(ids.SOPClassUID).Name).
		Bool("structured_report", types.IsStructuredReport(ids.SOPClassUID)).
		Str("transfer_syntax", types.TransferSyntaxName(ids.TransferSyntaxUID)).
		Int("data_size", len(buf)).
		Msg("Stored instance")
	return nil
}

func multipartBody(sopInstanceUID string, buf []byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, sopInstanceUID+".dcm"))
	header.Set("Content-Type", DICOMContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(buf); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}
