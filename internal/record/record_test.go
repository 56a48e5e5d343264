package record

import (
	"testing"
)

func TestNewGUID_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewGUID()
		if id == "" {
			t.Fatal("NewGUID() returned empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{name: "string id", rec: Record{"id": "abc"}, want: "abc"},
		{name: "integral float id", rec: Record{"id": float64(42)}, want: "42"},
		{name: "int id", rec: Record{"id": 7}, want: "7"},
		{name: "missing id", rec: Record{"name": "x"}, want: ""},
		{name: "nil id", rec: Record{"id": nil}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ID("id"); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "int and float", a: 1, b: float64(1), want: true},
		{name: "different numbers", a: 1, b: 2, want: false},
		{name: "strings", a: "v1", b: "v1", want: true},
		{name: "number vs string", a: 1, b: "1", want: false},
		{name: "both nil", a: nil, b: nil, want: true},
		{name: "one nil", a: nil, b: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VersionsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("VersionsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFullDataLoaded(t *testing.T) {
	rec := Record{"id": "a"}
	if rec.FullDataLoaded() {
		t.Fatal("new record should not be fully loaded")
	}

	rec.MarkFullDataLoaded(true)
	if !rec.FullDataLoaded() {
		t.Fatal("expected record to be fully loaded")
	}

	rec.MarkFullDataLoaded(false)
	if _, ok := rec[FullDataLoadedField]; ok {
		t.Error("clearing the flag should remove the field")
	}
}

func TestMergeSummaries_NewRecord(t *testing.T) {
	m := Mapping{}
	updated := m.MergeSummaries([]Record{{"id": "a", "version": 1, "title": "A"}}, "id", "version")

	if !updated {
		t.Fatal("expected mapping to be updated")
	}
	got := m["a"]
	if got["title"] != "A" {
		t.Errorf("title = %v, want A", got["title"])
	}
	if v, _ := got.Version("version"); !VersionsEqual(v, 1) {
		t.Errorf("version = %v, want 1", v)
	}
	if got.FullDataLoaded() {
		t.Error("summary record must not be marked fully loaded")
	}
}

func TestMergeSummaries_VersionChangeKeepsHeldVersion(t *testing.T) {
	m := Mapping{
		"a": {"id": "a", "version": 1, "title": "old", "body": "full", FullDataLoadedField: true},
	}
	updated := m.MergeSummaries([]Record{{"id": "a", "version": 2, "title": "new"}}, "id", "version")

	if !updated {
		t.Fatal("expected mapping to be updated")
	}
	got := m["a"]
	if got["title"] != "new" {
		t.Errorf("title = %v, want remote value", got["title"])
	}
	if _, ok := got["body"]; ok {
		t.Error("summary should replace the held record, not patch it")
	}
	if v, _ := got.Version("version"); !VersionsEqual(v, 1) {
		t.Errorf("version = %v, want held version 1", v)
	}
	if got.FullDataLoaded() {
		t.Error("merged record must be marked not fully loaded")
	}
}

func TestMergeSummaries_SameVersionUnchanged(t *testing.T) {
	held := Record{"id": "a", "version": float64(3), "body": "full", FullDataLoadedField: true}
	m := Mapping{"a": held}

	updated := m.MergeSummaries([]Record{{"id": "a", "version": 3, "title": "summary"}}, "id", "version")
	if updated {
		t.Fatal("same-version summary must not update the mapping")
	}
	if m["a"]["body"] != "full" || !m["a"].FullDataLoaded() {
		t.Error("held record was modified")
	}
}

func TestMergeSummaries_SkipsSummaryWithoutID(t *testing.T) {
	m := Mapping{}
	if m.MergeSummaries([]Record{{"version": 1}}, "id", "version") {
		t.Error("summary without id should be skipped")
	}
	if len(m) != 0 {
		t.Errorf("len = %d, want 0", len(m))
	}
}

func TestMappingValues_SortedAndIdempotent(t *testing.T) {
	m := Mapping{
		"c": {"id": "c"},
		"a": {"id": "a"},
		"b": {"id": "b"},
	}

	first := m.Values()
	second := m.Values()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("unexpected lengths %d/%d", len(first), len(second))
	}
	for i, want := range []string{"a", "b", "c"} {
		if first[i].ID("id") != want || second[i].ID("id") != want {
			t.Errorf("position %d = %s/%s, want %s", i, first[i].ID("id"), second[i].ID("id"), want)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		m, err := Decode(nil)
		if err != nil {
			t.Fatalf("Decode(nil) error: %v", err)
		}
		if len(m) != 0 {
			t.Errorf("len = %d, want 0", len(m))
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		if _, err := Decode([]byte("{not json")); err == nil {
			t.Error("expected error for corrupt input")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		in := Mapping{"a": {"id": "a", "version": 2, FullDataLoadedField: true}}
		data, err := in.Encode()
		if err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		out, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if !out["a"].FullDataLoaded() {
			t.Error("flag lost in round trip")
		}
		if v, _ := out["a"].Version("version"); !VersionsEqual(v, 2) {
			t.Errorf("version = %v, want 2", v)
		}
	})
}
