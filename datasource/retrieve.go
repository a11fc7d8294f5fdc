package datasource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/caio-sobreiro/dicomjson/dicom"
	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/imageid"
	"github.com/caio-sobreiro/dicomjson/index"
	"github.com/caio-sobreiro/dicomjson/types"
)

// Keys attached to every propagated instance record.
const (
	URLKey     = "url"
	ImageIDKey = "imageId"
)

// SeriesRequest selects the series of a study to propagate.
type SeriesRequest struct {
	StudyInstanceUID string
	Filters          types.Filters
	Sort             index.SortFunc
	MadeInClient     bool
}

// RetrieveSeriesMetadata pushes the requested series of a cached study to
// the metadata store: first the series summaries, then one instance batch
// per series. The study is marked loaded once every series batch has been
// handed to the store, however the batches are scheduled.
//
// A study that is not cached pushes nothing and is not an error.
func (d *DataSource) RetrieveSeriesMetadata(ctx context.Context, req SeriesRequest) error {
	if req.StudyInstanceUID == "" {
		return dicomerrors.NewMissingParameterError("retrieve series metadata", "StudyInstanceUID")
	}

	study, ok := d.index.FindStudy(req.StudyInstanceUID)
	if !ok {
		d.logger.Debug().Str("study_instance_uid", req.StudyInstanceUID).Msg("Study not cached, nothing to retrieve")
		return nil
	}
	series, _ := d.index.FindSeriesForDisplay(req.StudyInstanceUID, req.Filters, req.Sort)

	summaries := make([]types.SeriesSummary, 0, len(series))
	for _, s := range series {
		summaries = append(summaries, types.SeriesSummary{
			StudyInstanceUID: req.StudyInstanceUID,
			Attributes:       s.Attributes.Without(types.InstancesKey),
		})
	}
	d.store.AddSeriesMetadata(summaries, req.MadeInClient)

	if len(series) == 0 {
		d.store.MarkStudyLoaded(req.StudyInstanceUID, true)
		d.markPropagated(req.StudyInstanceUID)
		return nil
	}

	remaining := int64(len(series))
	g, gctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for _, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d.store.AddInstances(d.instanceRecords(study, s), req.MadeInClient)
			if atomic.AddInt64(&remaining, -1) == 0 {
				d.store.MarkStudyLoaded(req.StudyInstanceUID, true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	d.markPropagated(req.StudyInstanceUID)
	d.logger.Debug().
		Str("study_instance_uid", req.StudyInstanceUID).
		Int("series", len(series)).
		Msg("Series metadata propagated")
	return nil
}

func (d *DataSource) markPropagated(studyUID string) {
	for _, url := range d.index.URLsForStudy(studyUID) {
		d.pipeline.MarkPropagated(url)
	}
}

// instanceRecords flattens a series into the records pushed downstream.
// Study attributes are overlaid by series attributes and those by the
// instance's own normalized metadata.
func (d *DataSource) instanceRecords(study *types.Study, series *types.Series) []types.Attributes {
	base := study.Attributes.Without(types.SeriesKey, types.InstancesKey)
	for k, v := range series.Attributes.Without(types.SeriesKey, types.InstancesKey) {
		base[k] = v
	}

	records := make([]types.Attributes, 0, len(series.Instances))
	for _, inst := range series.Instances {
		record := base.Clone()
		for k, v := range dicom.WrapSequences(inst.Metadata) {
			if k == types.SeriesKey || k == types.InstancesKey {
				continue
			}
			record[k] = v
		}

		merged := &types.Instance{Metadata: record, URL: inst.URL}
		if inst.URL != "" {
			record[URLKey] = types.String(inst.URL)
		}
		record[ImageIDKey] = types.String(imageid.Synthesize(merged, 0, d.cfg))
		records = append(records, record)
	}
	return records
}

// ImageIDsForInstance returns the image id of one instance or frame.
func (d *DataSource) ImageIDsForInstance(inst *types.Instance, frame int) string {
	return imageid.Synthesize(inst, frame, d.cfg)
}

// ImageIDsForDisplaySet returns the image ids of a display set, one per
// frame for multi-frame instances. A display set without images has none.
// When the cached series holds more instances than the display set lists,
// the cached instances are used.
func (d *DataSource) ImageIDsForDisplaySet(ds types.DisplaySet) []string {
	if len(ds.Images) == 0 {
		return nil
	}

	images := ds.Images
	var parent types.Attributes
	if series, ok := d.index.Series(ds.StudyInstanceUID, ds.SeriesInstanceUID); ok {
		if len(series.Instances) > len(images) {
			images = series.Instances
		}
		parent = series.Attributes
	}

	var ids []string
	for _, inst := range images {
		ids = append(ids, imageid.ForInstance(withParents(inst, ds, parent), d.cfg)...)
	}
	return ids
}

// ThumbnailImageID returns the image id a display set is previewed with:
// its middle instance in the thumbnail rendering mode. It is empty when the
// display set has no images.
func (d *DataSource) ThumbnailImageID(ds types.DisplaySet) string {
	if len(ds.Images) == 0 {
		return ""
	}
	var parent types.Attributes
	if series, ok := d.index.Series(ds.StudyInstanceUID, ds.SeriesInstanceUID); ok {
		parent = series.Attributes
	}
	inst := ds.Images[len(ds.Images)/2]
	return imageid.Thumbnail(withParents(inst, ds, parent), 0, d.cfg)
}

// withParents fills in study and series UIDs the instance metadata leaves
// to its containers.
func withParents(inst *types.Instance, ds types.DisplaySet, parent types.Attributes) *types.Instance {
	m := inst.Metadata
	if m.String("StudyInstanceUID") != "" && m.String("SeriesInstanceUID") != "" {
		return inst
	}
	filled := m.Clone()
	if filled.String("StudyInstanceUID") == "" {
		filled["StudyInstanceUID"] = types.String(ds.StudyInstanceUID)
	}
	if filled.String("SeriesInstanceUID") == "" {
		uid := ds.SeriesInstanceUID
		if uid == "" {
			uid = parent.String("SeriesInstanceUID")
		}
		filled["SeriesInstanceUID"] = types.String(uid)
	}
	return &types.Instance{Metadata: filled, URL: inst.URL}
}
