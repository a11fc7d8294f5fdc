package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/caio-sobreiro/dicomjson/dicom"
	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/types"
)

func encodedInstance(t *testing.T) []byte {
	t.Helper()
	return encodedInstanceOf(t, types.EnhancedSRStorage)
}

func encodedInstanceOf(t *testing.T, sopClassUID string) []byte {
	t.Helper()
	data, err := dicom.NewEncoder().Encode(dicom.Part10Input{Dataset: types.Attributes{
		"SOPClassUID":       types.String(sopClassUID),
		"SOPInstanceUID":    types.String("9.8.7"),
		"StudyInstanceUID":  types.String("9.8"),
		"SeriesInstanceUID": types.String("9.8.1"),
		"Modality":          types.String("SR"),
	}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

type bearer string

func (b bearer) AuthorizationHeader(ctx context.Context) (http.Header, error) {
	return http.Header{"Authorization": {"Bearer " + string(b)}}, nil
}

func TestStoreClient_Store(t *testing.T) {
	data := encodedInstance(t)

	var gotPath, gotAuth, gotFilename, gotPartType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile(FormField)
		if err != nil {
			t.Errorf("FormFile(%s) error = %v", FormField, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotPartType = header.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rc := RoutingContext{Endpoint: srv.URL, BranchID: "branchA", StudyDate: "2024-01-01"}
	c := NewStoreClient(rc, Config{HTTPClient: srv.Client(), Auth: bearer("tok")})

	if err := c.Store(context.Background(), data); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if want := "/dicoms/branchA/2024-01-01/9.8/9.8.1/9.8.7"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotFilename != "9.8.7.dcm" {
		t.Errorf("filename = %q, want 9.8.7.dcm", gotFilename)
	}
	if gotPartType != DICOMContentType {
		t.Errorf("part Content-Type = %q, want %q", gotPartType, DICOMContentType)
	}
	if len(gotBody) != len(data) {
		t.Errorf("uploaded %d bytes, want %d", len(gotBody), len(data))
	}
}

func TestStoreClient_LogsSOPClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tests := []struct {
		name        string
		sopClassUID string
		want        []string
	}{
		{
			name:        "structured report",
			sopClassUID: types.EnhancedSRStorage,
			want:        []string{`"sop_class":"Enhanced SR Storage"`, `"structured_report":true`},
		},
		{
			name:        "unrecognized class",
			sopClassUID: "1.2.3.4",
			want:        []string{`"level":"warn"`, `"sop_class_uid":"1.2.3.4"`, `"structured_report":false`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := zerolog.New(&logs)
			c := NewStoreClient(RoutingContext{Endpoint: srv.URL, BranchID: "b", StudyDate: "d"}, Config{Logger: &logger})

			if err := c.Store(context.Background(), encodedInstanceOf(t, tt.sopClassUID)); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(logs.String(), want) {
					t.Errorf("logs missing %s:\n%s", want, logs.String())
				}
			}
		})
	}
}

func TestStoreClient_NonSuccessIsStoreError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewStoreClient(RoutingContext{Endpoint: srv.URL, BranchID: "b", StudyDate: "d"}, Config{})
	err := c.Store(context.Background(), encodedInstance(t))

	var storeErr *dicomerrors.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Store() error = %v, want StoreError", err)
	}
	if storeErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", storeErr.StatusCode)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want exactly 1", calls)
	}
}

func TestStoreClient_RejectsNonPart10(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("nothing should be uploaded")
	}))
	defer srv.Close()

	c := NewStoreClient(RoutingContext{Endpoint: srv.URL}, Config{})
	err := c.Store(context.Background(), []byte("not dicom"))
	if !errors.Is(err, dicomerrors.ErrEncoding) {
		t.Errorf("Store() error = %v, want encoding failure", err)
	}
}
