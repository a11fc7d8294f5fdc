package index

import (
	"sort"
	"sync"
	"testing"

	"github.com/caio-sobreiro/dicomjson/types"
)

func newSeries(uid string, number int) *types.Series {
	return &types.Series{
		Attributes: types.Attributes{
			"SeriesInstanceUID": types.String(uid),
			"SeriesNumber":      types.Number(float64(number)),
		},
		Instances: []*types.Instance{{
			Metadata: types.Attributes{"SOPInstanceUID": types.String(uid + ".1")},
		}},
	}
}

func newStudy(uid, patientID string, series ...*types.Series) *types.Study {
	return &types.Study{
		Attributes: types.Attributes{
			"StudyInstanceUID": types.String(uid),
			"PatientID":        types.String(patientID),
		},
		Series: series,
	}
}

func TestIndex_UpsertAndLookup(t *testing.T) {
	idx := New()
	st1 := newStudy("ST1", "P1", newSeries("SE1", 1))

	if _, ok := idx.LookupByURL("u1"); ok {
		t.Fatal("empty index should miss")
	}

	idx.Upsert("u1", []*types.Study{st1})

	entry, ok := idx.LookupByURL("u1")
	if !ok {
		t.Fatal("LookupByURL(u1) should hit after Upsert")
	}
	if len(entry.Studies) != 1 || entry.Studies[0] != st1 {
		t.Errorf("entry.Studies = %v, want [ST1]", entry.Studies)
	}

	uids, ok := idx.StudyUIDs("u1")
	if !ok || len(uids) != 1 || uids[0] != "ST1" {
		t.Errorf("StudyUIDs(u1) = %v, want [ST1]", uids)
	}

	if got := idx.FindStudies("PatientID", types.String("P1")); len(got) != 1 || got[0] != st1 {
		t.Errorf("FindStudies(PatientID, P1) = %v, want [ST1]", got)
	}
}

func TestIndex_UpsertReplacesWholeEntry(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("A", "P1")})
	idx.Upsert("u2", []*types.Study{newStudy("B", "P2")})
	idx.Upsert("u1", []*types.Study{newStudy("C", "P3"), newStudy("D", "P3")})

	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
	if urls := idx.URLs(); urls[0] != "u1" || urls[1] != "u2" {
		t.Errorf("URLs() = %v, want insertion order kept", urls)
	}

	uids, _ := idx.StudyUIDs("u1")
	if len(uids) != 2 || uids[0] != "C" || uids[1] != "D" {
		t.Errorf("StudyUIDs(u1) = %v, want [C D]", uids)
	}
	if got := idx.FindStudies("StudyInstanceUID", types.String("A")); len(got) != 0 {
		t.Error("replaced study A should no longer be found")
	}
}

func TestIndex_UpsertCopiesInput(t *testing.T) {
	idx := New()
	studies := []*types.Study{newStudy("A", "P1")}
	idx.Upsert("u1", studies)

	studies[0] = newStudy("Z", "P9")

	entry, _ := idx.LookupByURL("u1")
	if entry.Studies[0].StudyInstanceUID() != "A" {
		t.Error("cached entry changed when the caller reused its slice")
	}
}

func TestIndex_FindStudiesOrderAndDuplicates(t *testing.T) {
	idx := New()
	shared1 := newStudy("S", "P1")
	other := newStudy("O", "P1")
	shared2 := newStudy("S", "P1")

	idx.Upsert("u1", []*types.Study{shared1, other})
	idx.Upsert("u2", []*types.Study{shared2})

	got := idx.FindStudies("PatientID", types.String("P1"))
	want := []*types.Study{shared1, other, shared2}
	if len(got) != len(want) {
		t.Fatalf("len(FindStudies) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d out of order", i)
		}
	}

	if dup := idx.FindStudies("StudyInstanceUID", types.String("S")); len(dup) != 2 {
		t.Errorf("study cached under two URLs should be found twice, got %d", len(dup))
	}
}

func TestIndex_FindStudiesEquality(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("1.2.3", "P1")})

	if got := idx.FindStudies("StudyInstanceUID", types.String("1.2")); len(got) != 0 {
		t.Error("prefix should not match")
	}
	if got := idx.FindStudies("Missing", types.String("1.2.3")); len(got) != 0 {
		t.Error("absent attribute should not match")
	}
}

func TestIndex_EveryCachedStudyIsFindable(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("A", "P1"), newStudy("B", "P1")})
	idx.Upsert("u2", []*types.Study{newStudy("C", "P2")})

	for _, url := range idx.URLs() {
		entry, _ := idx.LookupByURL(url)
		for _, st := range entry.Studies {
			found := false
			for _, candidate := range idx.FindStudies("StudyInstanceUID", types.String(st.StudyInstanceUID())) {
				if candidate == st {
					found = true
				}
			}
			if !found {
				t.Errorf("study %s under %s not returned by FindStudies", st.StudyInstanceUID(), url)
			}
		}
	}
}

func TestIndex_FindSeriesForDisplay(t *testing.T) {
	idx := New()
	a, b, c := newSeries("A", 3), newSeries("B", 1), newSeries("C", 2)
	idx.Upsert("u1", []*types.Study{newStudy("ST", "P", a, b, c)})

	bySeriesNumber := func(series []*types.Series) []*types.Series {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Attributes.Int("SeriesNumber") < series[j].Attributes.Int("SeriesNumber")
		})
		return series
	}

	tests := []struct {
		name    string
		filters types.Filters
		sort    SortFunc
		want    []string
	}{
		{"original order", nil, nil, []string{"A", "B", "C"}},
		{"custom sort", nil, bySeriesNumber, []string{"B", "C", "A"}},
		{"filter", types.Filters{"SeriesInstanceUID": {"C", "A"}}, nil, []string{"A", "C"}},
		{"filter alias", types.Filters{"seriesInstanceUIDs": {"B"}}, nil, []string{"B"}},
		{"sort then filter", types.Filters{"SeriesInstanceUIDs": {"A", "C"}}, bySeriesNumber, []string{"C", "A"}},
		{"unknown filter ignored", types.Filters{"Modality": {"CT"}}, nil, []string{"A", "B", "C"}},
		{"empty filter matches nothing", types.Filters{"SeriesInstanceUID": {}}, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, ok := idx.FindSeriesForDisplay("ST", tt.filters, tt.sort)
			if !ok {
				t.Fatal("FindSeriesForDisplay() should find the study")
			}
			if len(series) != len(tt.want) {
				t.Fatalf("got %d series, want %d", len(series), len(tt.want))
			}
			for i, uid := range tt.want {
				if series[i].SeriesInstanceUID() != uid {
					t.Errorf("series[%d] = %s, want %s", i, series[i].SeriesInstanceUID(), uid)
				}
			}
		})
	}

	study, _ := idx.FindStudy("ST")
	for i, uid := range []string{"A", "B", "C"} {
		if study.Series[i].SeriesInstanceUID() != uid {
			t.Fatal("cached series list was reordered")
		}
	}
}

func TestIndex_MissesAreNotErrors(t *testing.T) {
	idx := New()

	if _, ok := idx.FindSeriesForDisplay("nope", nil, nil); ok {
		t.Error("FindSeriesForDisplay on unknown study should report a miss")
	}
	if _, ok := idx.StudyUIDs("nope"); ok {
		t.Error("StudyUIDs on unknown URL should report a miss")
	}
	if _, ok := idx.Series("nope", "nope"); ok {
		t.Error("Series on unknown study should report a miss")
	}
}

func TestIndex_Series(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("ST", "P", newSeries("A", 1), newSeries("B", 2))})

	s, ok := idx.Series("ST", "B")
	if !ok || s.SeriesInstanceUID() != "B" {
		t.Errorf("Series(ST, B) = %v, %v", s, ok)
	}
	if _, ok := idx.Series("ST", "Z"); ok {
		t.Error("Series(ST, Z) should miss")
	}
}

func TestIndex_URLsForStudy(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("A", "P"), newStudy("B", "P")})
	idx.Upsert("u2", []*types.Study{newStudy("B", "P")})

	urls := idx.URLsForStudy("B")
	if len(urls) != 2 || urls[0] != "u1" || urls[1] != "u2" {
		t.Errorf("URLsForStudy(B) = %v, want [u1 u2]", urls)
	}
	if urls := idx.URLsForStudy("Z"); len(urls) != 0 {
		t.Errorf("URLsForStudy(Z) = %v, want none", urls)
	}
}

func TestIndex_Reset(t *testing.T) {
	idx := New()
	idx.Upsert("u1", []*types.Study{newStudy("A", "P")})
	idx.Reset()

	if idx.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", idx.Len())
	}
	if _, ok := idx.LookupByURL("u1"); ok {
		t.Error("LookupByURL should miss after Reset")
	}
}

func TestIndex_ConcurrentReadersAndWriter(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			idx.Upsert("u1", []*types.Study{newStudy("A", "P"), newStudy("B", "P")})
		}()
		go func() {
			defer wg.Done()
			if entry, ok := idx.LookupByURL("u1"); ok && len(entry.Studies) != 2 {
				t.Errorf("observed a partial entry with %d studies", len(entry.Studies))
			}
			_ = idx.FindStudies("PatientID", types.String("P"))
		}()
	}
	wg.Wait()
}
