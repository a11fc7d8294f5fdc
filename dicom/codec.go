package dicom

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	godicom "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/caio-sobreiro/dicomjson/types"
)

// MetaKey holds file meta information carried alongside a naturalized dataset.
const MetaKey = "_meta"

// Denaturalize converts a keyword keyed attribute map into dictionary tagged
// elements sorted by tag. Keywords the dictionary does not know, private
// bookkeeping keys (leading underscore), nulls and bulk data references are
// skipped and reported back in skipped.
func Denaturalize(attrs types.Attributes) (elems []*godicom.Element, skipped []string, err error) {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := attrs[key]
		if strings.HasPrefix(key, "_") || value.IsNull() {
			continue
		}

		info, err := tag.FindByName(key)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}

		elem, nested, err := newElement(info, value)
		if err != nil {
			return nil, nil, fmt.Errorf("denaturalize %s: %w", key, err)
		}
		skipped = append(skipped, nested...)
		if elem == nil {
			skipped = append(skipped, key)
			continue
		}
		elems = append(elems, elem)
	}

	sortElements(elems)
	return elems, skipped, nil
}

func newElement(info tag.Info, value types.Value) (*godicom.Element, []string, error) {
	vr := primaryVR(info)

	switch {
	case vr == types.VR_SQ:
		var items [][]*godicom.Element
		var skipped []string
		for i := 0; i < value.Len(); i++ {
			item, _ := value.At(i)
			if item.Kind() != types.KindNested {
				return nil, nil, fmt.Errorf("sequence item %d is a %s, want nested", i, item.Kind())
			}
			children, nested, err := Denaturalize(item.Fields())
			if err != nil {
				return nil, nil, err
			}
			skipped = append(skipped, nested...)
			items = append(items, children)
		}
		elem, err := godicom.NewElement(info.Tag, items)
		return elem, skipped, err

	case types.IsStringVR(vr):
		texts, err := textValues(value)
		if err != nil {
			return nil, nil, err
		}
		elem, err := godicom.NewElement(info.Tag, texts)
		return elem, nil, err

	case types.IsIntVR(vr):
		ints, err := intValues(value)
		if err != nil {
			return nil, nil, err
		}
		elem, err := godicom.NewElement(info.Tag, ints)
		return elem, nil, err

	case types.IsFloatVR(vr):
		floats, err := floatValues(value)
		if err != nil {
			return nil, nil, err
		}
		elem, err := godicom.NewElement(info.Tag, floats)
		return elem, nil, err

	case types.IsBinaryVR(vr):
		data, ok, err := binaryValue(value)
		if err != nil || !ok {
			return nil, nil, err
		}
		elem, err := godicom.NewElement(info.Tag, data)
		return elem, nil, err
	}

	return nil, nil, nil
}

func primaryVR(info tag.Info) string {
	if len(info.VRs) == 0 {
		return types.VR_UN
	}
	return info.VRs[0]
}

func textValues(value types.Value) ([]string, error) {
	if value.Kind() == types.KindSequence {
		items := value.Items()
		out := make([]string, len(items))
		for i, item := range items {
			s, ok := item.Text()
			if !ok {
				return nil, fmt.Errorf("value %d is not text", i)
			}
			out[i] = s
		}
		return out, nil
	}
	s, ok := value.Text()
	if !ok {
		return nil, fmt.Errorf("%s value is not text", value.Kind())
	}
	return []string{s}, nil
}

func floatValues(value types.Value) ([]float64, error) {
	var items []types.Value
	if value.Kind() == types.KindSequence {
		items = value.Items()
	} else {
		items = []types.Value{value}
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := item.Float()
		if !ok {
			return nil, fmt.Errorf("value %d is not numeric", i)
		}
		out[i] = f
	}
	return out, nil
}

func intValues(value types.Value) ([]int, error) {
	floats, err := floatValues(value)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(floats))
	for i, f := range floats {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("value %d (%v) is not an integer", i, f)
		}
		out[i] = int(f)
	}
	return out, nil
}

// binaryValue accepts {"InlineBinary": base64}, a base64 string, or a list of
// byte values. BulkDataURI references report ok=false.
func binaryValue(value types.Value) ([]byte, bool, error) {
	switch value.Kind() {
	case types.KindNested:
		inline, ok := value.Get("InlineBinary")
		if !ok {
			return nil, false, nil
		}
		s, _ := inline.Text()
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, false, fmt.Errorf("inline binary: %w", err)
		}
		return data, true, nil
	case types.KindSequence:
		ints, err := intValues(value)
		if err != nil {
			return nil, false, err
		}
		data := make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > 0xFF {
				return nil, false, fmt.Errorf("byte %d out of range: %d", i, n)
			}
			data[i] = byte(n)
		}
		return data, true, nil
	default:
		s, ok := value.Text()
		if !ok {
			return nil, false, nil
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, false, fmt.Errorf("binary string: %w", err)
		}
		return data, true, nil
	}
}

// Naturalize converts parsed elements back into keyword keyed attributes,
// splitting out file meta information (group 0002). Pixel data and tags
// unknown to the dictionary are dropped.
func Naturalize(ds godicom.Dataset) (meta, body types.Attributes) {
	meta = make(types.Attributes)
	body = make(types.Attributes)
	for _, elem := range ds.Elements {
		if elem == nil || elem.Value == nil {
			continue
		}
		info, err := tag.Find(elem.Tag)
		if err != nil {
			continue
		}
		value, ok := naturalValue(elem)
		if !ok {
			continue
		}
		if elem.Tag.Group == tag.MetadataGroup {
			meta[info.Keyword] = value
		} else {
			body[info.Keyword] = value
		}
	}
	return meta, body
}

func naturalValue(elem *godicom.Element) (types.Value, bool) {
	vr := elem.RawValueRepresentation

	switch raw := elem.Value.GetValue().(type) {
	case []string:
		items := make([]types.Value, 0, len(raw))
		for _, s := range raw {
			items = append(items, naturalText(vr, strings.TrimRight(s, " \x00")))
		}
		return collapse(items), true
	case []int:
		items := make([]types.Value, len(raw))
		for i, n := range raw {
			items[i] = types.Number(float64(n))
		}
		return collapse(items), true
	case []float64:
		items := make([]types.Value, len(raw))
		for i, f := range raw {
			items[i] = types.Number(f)
		}
		return collapse(items), true
	case []byte:
		return types.Nested(types.Attributes{
			"InlineBinary": types.String(base64.StdEncoding.EncodeToString(raw)),
		}), true
	case []*godicom.SequenceItemValue:
		items := make([]types.Value, 0, len(raw))
		for _, item := range raw {
			children, _ := item.GetValue().([]*godicom.Element)
			_, fields := Naturalize(godicom.Dataset{Elements: children})
			items = append(items, types.Nested(fields))
		}
		return types.Sequence(items...), true
	default:
		return types.Null, false
	}
}

// naturalText keeps text as a string except IS and DS values, which become
// numbers. A DS of "1.50" comes back as 1.5.
func naturalText(vr, s string) types.Value {
	if !types.IsNumericStringVR(vr) {
		return types.String(s)
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return types.Number(f)
	}
	return types.String(s)
}

func collapse(items []types.Value) types.Value {
	switch len(items) {
	case 0:
		return types.Null
	case 1:
		return items[0]
	default:
		return types.Sequence(items...)
	}
}

func sortElements(elems []*godicom.Element) {
	sort.SliceStable(elems, func(i, j int) bool {
		a, b := elems[i].Tag, elems[j].Tag
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Element < b.Element
	})
}
