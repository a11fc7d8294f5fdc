// Package imageid derives the stable identifiers downstream renderers use to
// address an instance or one of its frames.
package imageid

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/caio-sobreiro/dicomjson/types"
)

// Scheme prefixes of synthesized identifiers.
const (
	SchemeWADOURI = "dicomweb:"
	SchemeWADORS  = "wadors:"
)

// Synthesize returns the identifier of inst, or of one of its frames when
// frame is 1 or greater. Frames are 1-indexed; 0 means "no frame".
//
// The result depends only on the instance attributes, frame and cfg, so it is
// safe to use as a cache key.
func Synthesize(inst *types.Instance, frame int, cfg types.SourceConfig) string {
	return synthesize(inst, frame, cfg, cfg.ImageRendering)
}

// Thumbnail is Synthesize using the thumbnail rendering mode.
func Thumbnail(inst *types.Instance, frame int, cfg types.SourceConfig) string {
	return synthesize(inst, frame, cfg, cfg.ThumbnailRendering)
}

func synthesize(inst *types.Instance, frame int, cfg types.SourceConfig, rendering string) string {
	if inst == nil {
		return ""
	}
	if inst.URL != "" {
		return withFrame(inst.URL, frame)
	}
	if rendering == types.RenderingWADORS {
		return wadoRS(inst, frame, cfg)
	}
	return wadoURI(inst, frame, cfg)
}

// ForInstance returns one identifier per frame for multi-frame instances
// (frames 1..NumberOfFrames) and a single frame-less identifier otherwise.
func ForInstance(inst *types.Instance, cfg types.SourceConfig) []string {
	frames := inst.NumberOfFrames()
	if frames <= 1 {
		return []string{Synthesize(inst, 0, cfg)}
	}
	ids := make([]string, 0, frames)
	for frame := 1; frame <= frames; frame++ {
		ids = append(ids, Synthesize(inst, frame, cfg))
	}
	return ids
}

func withFrame(base string, frame int) string {
	if frame < 1 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "frame=" + strconv.Itoa(frame)
}

func wadoRS(inst *types.Instance, frame int, cfg types.SourceConfig) string {
	if frame < 1 {
		frame = 1
	}
	m := inst.Metadata
	var b strings.Builder
	b.WriteString(SchemeWADORS)
	b.WriteString(strings.TrimRight(cfg.WadoRoot, "/"))
	b.WriteString("/studies/")
	b.WriteString(m.String("StudyInstanceUID"))
	b.WriteString("/series/")
	b.WriteString(m.String("SeriesInstanceUID"))
	b.WriteString("/instances/")
	b.WriteString(m.String("SOPInstanceUID"))
	b.WriteString("/frames/")
	b.WriteString(strconv.Itoa(frame))
	return b.String()
}

func wadoURI(inst *types.Instance, frame int, cfg types.SourceConfig) string {
	m := inst.Metadata
	// Parameters are written in a fixed order; url.Values.Encode would sort them.
	params := []struct{ key, value string }{
		{"requestType", "WADO"},
		{"studyUID", m.String("StudyInstanceUID")},
		{"seriesUID", m.String("SeriesInstanceUID")},
		{"objectUID", m.String("SOPInstanceUID")},
		{"contentType", "application/dicom"},
	}

	var b strings.Builder
	b.WriteString(SchemeWADOURI)
	b.WriteString(cfg.WadoURIRoot)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	if frame >= 1 {
		b.WriteString("&frame=")
		b.WriteString(strconv.Itoa(frame))
	}
	return b.String()
}
