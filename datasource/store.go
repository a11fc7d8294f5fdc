package datasource

import (
	"context"

	"github.com/caio-sobreiro/dicomjson/dicom"
)

// StoreInput is what StoreDICOM accepts: an encoded buffer, a prepared
// header and body, or a structured dataset.
type StoreInput = dicom.Part10Input

// StoreDICOM encodes in and uploads it under the session's routing
// context. stored is false without error when uploads are disabled.
func (d *DataSource) StoreDICOM(ctx context.Context, in StoreInput) (stored bool, err error) {
	d.mu.RLock()
	uploader := d.uploader
	d.mu.RUnlock()

	if uploader == nil {
		d.logger.Debug().Msg("Uploads disabled, store skipped")
		return false, nil
	}

	buf, err := d.encoder.Encode(in)
	if err != nil {
		return false, err
	}
	if err := uploader.Store(ctx, buf); err != nil {
		return false, err
	}
	return true, nil
}
