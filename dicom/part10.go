package dicom

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	godicom "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/types"
)

// A DICOM Part 10 file is:
//   - 128 byte preamble
//   - 4 byte "DICM" prefix
//   - File Meta Information elements (group 0x0002)
//   - Dataset
const (
	preambleLength = 128
	magicWord      = "DICM"
)

// Dict is a Part10 header plus dataset ready to be written.
type Dict struct {
	Meta []*godicom.Element
	Body []*godicom.Element
}

// Dataset joins header and body into a single dataset.
func (d *Dict) Dataset() godicom.Dataset {
	elems := make([]*godicom.Element, 0, len(d.Meta)+len(d.Body))
	elems = append(elems, d.Meta...)
	elems = append(elems, d.Body...)
	return godicom.Dataset{Elements: elems}
}

// Write serializes the dict as a Part10 file in Explicit VR Little Endian.
func (d *Dict) Write() ([]byte, error) {
	var buf bytes.Buffer
	if err := godicom.Write(&buf, d.Dataset()); err != nil {
		return nil, dicomerrors.NewEncodingError("write part10", err)
	}
	return buf.Bytes(), nil
}

// BuildHeader creates the file meta information for a naturalized dataset.
//
// The header carries the dataset's own FileMetaInformationVersion when it has
// one under "_meta", the media storage SOP class and instance taken from the
// dataset, Explicit VR Little Endian as transfer syntax, and this
// implementation's class UID and version name.
func BuildHeader(attrs types.Attributes) ([]*godicom.Element, error) {
	sopClassUID := attrs.String("SOPClassUID")
	sopInstanceUID := attrs.String("SOPInstanceUID")
	if sopClassUID == "" || sopInstanceUID == "" {
		return nil, dicomerrors.NewEncodingError("build header",
			errors.New("dataset must carry SOPClassUID and SOPInstanceUID"))
	}

	version := types.FileMetaInformationVersion
	if v, ok := metaVersion(attrs); ok {
		version = v
	}

	header := []struct {
		tag   tag.Tag
		value any
	}{
		{tag.FileMetaInformationVersion, version},
		{tag.MediaStorageSOPClassUID, []string{sopClassUID}},
		{tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}},
		{tag.TransferSyntaxUID, []string{types.ExplicitVRLittleEndian}},
		{tag.ImplementationClassUID, []string{types.ImplementationClassUID}},
		{tag.ImplementationVersionName, []string{types.ImplementationVersionName}},
	}

	elems := make([]*godicom.Element, 0, len(header))
	for _, h := range header {
		elem, err := godicom.NewElement(h.tag, h.value)
		if err != nil {
			return nil, dicomerrors.NewEncodingError("build header", fmt.Errorf("%s: %w", h.tag, err))
		}
		elems = append(elems, elem)
	}
	return elems, nil
}

func metaVersion(attrs types.Attributes) ([]byte, bool) {
	meta, ok := attrs[MetaKey]
	if !ok {
		return nil, false
	}
	version, ok := meta.Get("FileMetaInformationVersion")
	if !ok {
		return nil, false
	}
	if inner, ok := version.Get("Value"); ok {
		version = inner
	}
	if version.Kind() == types.KindSequence && version.Len() == 1 {
		if first, _ := version.First(); first.Kind() != types.KindScalar {
			version = first
		}
	}
	data, ok, err := binaryValue(version)
	if err != nil || !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// BuildDict denaturalizes a dataset and attaches a freshly built header.
func BuildDict(attrs types.Attributes) (*Dict, []string, error) {
	meta, err := BuildHeader(attrs)
	if err != nil {
		return nil, nil, err
	}
	body, skipped, err := Denaturalize(attrs)
	if err != nil {
		return nil, nil, dicomerrors.NewEncodingError("denaturalize", err)
	}
	return &Dict{Meta: meta, Body: body}, skipped, nil
}

// Part10Input is the value handed to the encoder. Exactly one field is
// expected to be set; Buffer takes precedence over Dict, Dict over Dataset.
type Part10Input struct {
	// Buffer is an already encoded Part10 file, passed through unchanged.
	Buffer []byte
	// Dict is a caller-built header and dataset pair.
	Dict *Dict
	// Dataset is a naturalized dataset to encode.
	Dataset types.Attributes
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithLogger overrides the logger used by the encoder.
func WithLogger(logger zerolog.Logger) EncoderOption {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// Encoder turns naturalized datasets into Part10 bytes.
type Encoder struct {
	logger zerolog.Logger
}

// NewEncoder builds an Encoder.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns the Part10 bytes for in. Codec failures are returned as
// *errors.EncodingError; nothing is retried.
func (e *Encoder) Encode(in Part10Input) ([]byte, error) {
	switch {
	case in.Buffer != nil:
		e.logger.Debug().Int("size", len(in.Buffer)).Msg("passing through encoded part10 buffer")
		return in.Buffer, nil

	case in.Dict != nil:
		return in.Dict.Write()

	case in.Dataset != nil:
		dict, skipped, err := BuildDict(in.Dataset)
		if err != nil {
			return nil, err
		}
		if len(skipped) > 0 {
			e.logger.Warn().Strs("keywords", skipped).Msg("skipped attributes without a dictionary entry")
		}
		data, err := dict.Write()
		if err != nil {
			return nil, err
		}
		e.logger.Debug().
			Str("sop_instance_uid", in.Dataset.String("SOPInstanceUID")).
			Int("elements", len(dict.Body)).
			Int("size", len(data)).
			Msg("encoded part10 dataset")
		return data, nil
	}

	return nil, dicomerrors.NewEncodingError("encode", errors.New("no dataset or buffer given"))
}

// HasPart10Header checks if the data starts with a DICOM Part 10 header.
//
// Returns true if the data contains the 128-byte preamble followed by "DICM".
func HasPart10Header(data []byte) bool {
	if len(data) < preambleLength+len(magicWord) {
		return false
	}
	return string(data[preambleLength:preambleLength+len(magicWord)]) == magicWord
}

// Identifiers are the UIDs needed to address an encoded instance.
type Identifiers struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	SOPClassUID       string
	TransferSyntaxUID string
}

// ReadIdentifiers parses a Part10 buffer (skipping pixel data) and returns its UIDs.
func ReadIdentifiers(data []byte) (Identifiers, error) {
	if !HasPart10Header(data) {
		return Identifiers{}, dicomerrors.NewEncodingError("read part10",
			fmt.Errorf("not a valid DICOM Part 10 file (missing DICM prefix at offset %d)", preambleLength))
	}

	ds, err := godicom.Parse(bytes.NewReader(data), int64(len(data)), nil, godicom.SkipPixelData())
	if err != nil {
		return Identifiers{}, dicomerrors.NewEncodingError("read part10", err)
	}

	meta, body := Naturalize(ds)
	return Identifiers{
		StudyInstanceUID:  body.String("StudyInstanceUID"),
		SeriesInstanceUID: body.String("SeriesInstanceUID"),
		SOPInstanceUID:    body.String("SOPInstanceUID"),
		SOPClassUID:       body.String("SOPClassUID"),
		TransferSyntaxUID: meta.String("TransferSyntaxUID"),
	}, nil
}
