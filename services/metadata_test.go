package services

import (
	"testing"

	"github.com/caio-sobreiro/dicomjson/types"
)

func summary(study, series string) types.SeriesSummary {
	return types.SeriesSummary{
		StudyInstanceUID: study,
		Attributes: types.Attributes{
			"SeriesInstanceUID": types.String(series),
			"Modality":          types.String("CT"),
		},
	}
}

func record(study, series, sop string) types.Attributes {
	return types.Attributes{
		"StudyInstanceUID":  types.String(study),
		"SeriesInstanceUID": types.String(series),
		"SOPInstanceUID":    types.String(sop),
	}
}

func TestMetadataStore_RecordsStudyView(t *testing.T) {
	store := NewMetadataStore()

	store.AddSeriesMetadata([]types.SeriesSummary{summary("ST", "A"), summary("ST", "B")}, false)
	store.AddInstances([]types.Attributes{record("ST", "A", "A.1"), record("ST", "A", "A.2")}, false)
	store.AddInstances([]types.Attributes{record("ST", "B", "B.1")}, false)

	if store.IsLoaded("ST") {
		t.Error("study should not be loaded before MarkStudyLoaded")
	}
	store.MarkStudyLoaded("ST", true)

	view, ok := store.Study("ST")
	if !ok {
		t.Fatal("Study(ST) should be present")
	}
	if !view.IsLoaded {
		t.Error("IsLoaded = false, want true")
	}
	if len(view.Series) != 2 {
		t.Errorf("len(Series) = %d, want 2", len(view.Series))
	}
	if len(view.Instances["A"]) != 2 || len(view.Instances["B"]) != 1 {
		t.Errorf("Instances = %v", view.Instances)
	}
}

func TestMetadataStore_SeriesReplaced(t *testing.T) {
	store := NewMetadataStore()
	store.AddSeriesMetadata([]types.SeriesSummary{summary("ST", "A")}, false)

	updated := summary("ST", "A")
	updated.Attributes["Modality"] = types.String("MR")
	store.AddSeriesMetadata([]types.SeriesSummary{updated}, false)

	view, _ := store.Study("ST")
	if len(view.Series) != 1 {
		t.Fatalf("len(Series) = %d, want 1", len(view.Series))
	}
	if got := view.Series[0].Attributes.String("Modality"); got != "MR" {
		t.Errorf("Modality = %q, want MR", got)
	}
}

func TestMetadataStore_EventOrder(t *testing.T) {
	store := NewMetadataStore()
	store.AddSeriesMetadata([]types.SeriesSummary{summary("ST", "A")}, false)
	store.AddInstances(nil, false)
	store.AddInstances([]types.Attributes{record("ST", "A", "A.1")}, false)
	store.MarkStudyLoaded("ST", true)

	events := store.Events()
	want := []EventKind{EventSeriesAdded, EventInstancesAdded, EventStudyLoaded}
	if len(events) != len(want) {
		t.Fatalf("len(Events()) = %d, want %d", len(events), len(want))
	}
	for i, kind := range want {
		if events[i].Kind != kind {
			t.Errorf("events[%d] = %s, want %s", i, events[i].Kind, kind)
		}
	}
	if events[1].Count != 1 || events[1].SeriesInstanceUID != "A" {
		t.Errorf("instances event = %+v", events[1])
	}
}

func TestMetadataStore_StudyIsCopy(t *testing.T) {
	store := NewMetadataStore()
	store.AddInstances([]types.Attributes{record("ST", "A", "A.1")}, false)

	view, _ := store.Study("ST")
	view.Instances["A"] = nil

	again, _ := store.Study("ST")
	if len(again.Instances["A"]) != 1 {
		t.Error("mutating a returned view changed the store")
	}
}

func TestMetadataStore_UnknownStudy(t *testing.T) {
	store := NewMetadataStore()
	if _, ok := store.Study("nope"); ok {
		t.Error("Study(nope) should miss")
	}
	if store.IsLoaded("nope") {
		t.Error("IsLoaded(nope) = true")
	}
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventSeriesAdded, "series_added"},
		{EventInstancesAdded, "instances_added"},
		{EventStudyLoaded, "study_loaded"},
		{EventKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
