package state

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/marks"
)

func TestLoadMissingFile(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(st.Recents) != 0 || len(st.Marks) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Load(path)
	if err != nil {
		t.Fatalf("corrupt file should degrade to empty state: %v", err)
	}
	if len(st.Recents) != 0 {
		t.Errorf("got %+v from corrupt file", st)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	want := State{
		Recents: []corpus.Candidate{
			{Root: "main", Path: "src/a.rs"},
			{Path: "src/b.rs"},
		},
		Marks: []marks.SlotMark{
			{Slot: 0, Mark: marks.Mark{Candidate: corpus.Candidate{Path: "src/a.rs"}, DisplayName: "a.rs"}},
			{Slot: 3, Mark: marks.Mark{Candidate: corpus.Candidate{Root: "main", Path: "lib/x.rs"}, DisplayName: "x.rs"}},
		},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSavePreservesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	host := []byte(`{"theme":"dark","quickopen":{"recents":[]},"editor":{"tabs":4}}`)
	if err := os.WriteFile(path, host, 0o644); err != nil {
		t.Fatal(err)
	}

	err := Save(path, State{Recents: []corpus.Candidate{{Path: "a.go"}}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(data, "theme").String() != "dark" {
		t.Error("host key theme lost")
	}
	if gjson.GetBytes(data, "editor.tabs").Int() != 4 {
		t.Error("host key editor.tabs lost")
	}
	if gjson.GetBytes(data, "quickopen.recents.0.path").String() != "a.go" {
		t.Error("recents not written")
	}
}

func TestLoadSkipsEmptyPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw := `{"quickopen":{"recents":[{"root":"","path":""},{"path":"ok.go"}]}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Recents) != 1 || st.Recents[0].Path != "ok.go" {
		t.Errorf("got %+v, want single ok.go entry", st.Recents)
	}
}
