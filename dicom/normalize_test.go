package dicom

import (
	"testing"

	"github.com/caio-sobreiro/dicomjson/types"
)

func codeItem(value, meaning string) types.Value {
	return types.Nested(types.Attributes{
		"CodeValue":   types.String(value),
		"CodeMeaning": types.String(meaning),
	})
}

func TestWrapSequences_MarksSequenceKeys(t *testing.T) {
	in := types.Attributes{
		"Modality":                types.String("SR"),
		"ConceptNameCodeSequence": types.Sequence(codeItem("126000", "Imaging Measurement Report")),
		"PixelSpacing":            types.Sequence(types.Number(0.5), types.Number(0.5)),
	}

	out := WrapSequences(in)

	if !out["ConceptNameCodeSequence"].IsRepeating() {
		t.Error("ConceptNameCodeSequence should be repeating")
	}
	if out["PixelSpacing"].IsRepeating() {
		t.Error("PixelSpacing is not a repeating group")
	}
	if out["Modality"].IsRepeating() {
		t.Error("scalar attributes should not be marked")
	}

	meaning, ok := out["ConceptNameCodeSequence"].Get("CodeMeaning")
	if !ok || !meaning.Equal(types.String("Imaging Measurement Report")) {
		t.Errorf("first-item accessor = %v, want Imaging Measurement Report", meaning)
	}
}

func TestWrapSequences_Recurses(t *testing.T) {
	in := types.Attributes{
		"ContentSequence": types.Sequence(
			types.Nested(types.Attributes{
				"ValueType":               types.String("CODE"),
				"ConceptCodeSequence":     types.Sequence(codeItem("T-04000", "Breast")),
				"MeasuredValueSequence":   types.Nested(types.Attributes{"NumericValue": types.Number(12)}),
				"ReferencedSOPSequence":   types.Null,
				"ContentTemplateSequence": types.Sequence(),
			}),
		),
	}

	out := WrapSequences(in)

	outer, ok := out["ContentSequence"].First()
	if !ok {
		t.Fatal("ContentSequence should have one item")
	}

	concept, ok := outer.Get("ConceptCodeSequence")
	if !ok || !concept.IsRepeating() {
		t.Fatal("nested ConceptCodeSequence should be repeating")
	}
	if code, _ := concept.Get("CodeValue"); !code.Equal(types.String("T-04000")) {
		t.Errorf("nested accessor = %v, want T-04000", code)
	}

	measured, _ := outer.Get("MeasuredValueSequence")
	if !measured.IsRepeating() {
		t.Error("object valued sequence should be repeating")
	}
	if first, ok := measured.First(); !ok || first.Fields().Int("NumericValue") != 12 {
		t.Error("object valued sequence should expose itself as the first item")
	}

	if ref, _ := outer.Get("ReferencedSOPSequence"); !ref.IsNull() || ref.IsRepeating() {
		t.Error("null values must pass through unchanged")
	}
}

func TestWrapSequences_DoesNotMutateInput(t *testing.T) {
	item := codeItem("1", "one")
	in := types.Attributes{
		"CodeSequence": types.Sequence(item),
		"Nested":       types.Nested(types.Attributes{"InnerSequence": types.Sequence(item)}),
	}

	_ = WrapSequences(in)

	if in["CodeSequence"].IsRepeating() {
		t.Error("input value was marked")
	}
	inner, _ := in["Nested"].Get("InnerSequence")
	if inner.IsRepeating() {
		t.Error("nested input value was marked")
	}
}

func TestWrapSequences_PreservesOrder(t *testing.T) {
	in := types.Attributes{
		"ReferencedSeriesSequence": types.Sequence(
			types.Nested(types.Attributes{"SeriesInstanceUID": types.String("A")}),
			types.Nested(types.Attributes{"SeriesInstanceUID": types.String("B")}),
			types.Nested(types.Attributes{"SeriesInstanceUID": types.String("C")}),
		),
	}

	items := WrapSequences(in)["ReferencedSeriesSequence"].Items()
	want := []string{"A", "B", "C"}
	for i, w := range want {
		if got := items[i].Fields().String("SeriesInstanceUID"); got != w {
			t.Errorf("item %d = %q, want %q", i, got, w)
		}
	}
}

func TestWrapSequences_Nil(t *testing.T) {
	if WrapSequences(nil) != nil {
		t.Error("WrapSequences(nil) should return nil")
	}
}
