package ingest

import (
	"net/url"

	lzstring "github.com/daku10/go-lz-string"

	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
)

// Query parameters naming the study list.
const (
	IDParam  = "id"
	URLParam = "url"
)

// ResolveURL picks the source URL out of a data source query string. A
// compressed "id" (lz-string, URI component encoding) wins over "url".
func ResolveURL(query url.Values) (string, error) {
	if id := query.Get(IDParam); id != "" {
		return decompressID(id)
	}
	if u := query.Get(URLParam); u != "" {
		return u, nil
	}
	return "", dicomerrors.NewMissingParameterError("resolve the study list", URLParam)
}

// decompressID expands a compressed study list id. The result must be an
// absolute URL.
func decompressID(id string) (string, error) {
	source, err := lzstring.DecompressFromEncodedURIComponent(id)
	if err != nil || source == "" {
		return "", dicomerrors.NewMissingParameterError("decompress the study list id", IDParam)
	}
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", dicomerrors.NewMissingParameterError("decompress the study list id", IDParam)
	}
	return source, nil
}
