package manifest

import (
	"path/filepath"
	"testing"

	"github.com/copyleftdev/skilldex/internal/storage"
)

func seedLibrary(t *testing.T) storage.Provider {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	write := func(path, content string) {
		t.Helper()
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatalf("Write %s: %v", path, err)
		}
	}

	write("languages/python/hettinger/SKILL.md",
		"---\nname: hettinger\ndescription: Pythonic idioms\n---\n# Hettinger\n")
	write("languages/python/hettinger/cheatsheet.md", "# Cheatsheet\n")
	write("domains/threat-hunting/SKILL.md",
		"---\nname: threat-hunting\ndescription: Hypothesis-driven detection\n---\n# Hunting\n")
	write("meta/skill-template/SKILL.md",
		"---\nname: template\ndescription: Authoring template\n---\n")
	write("README.md", "# Index\n")

	return store
}

func TestGenerate(t *testing.T) {
	store := seedLibrary(t)

	m, err := Generate(store, "https://github.com/copyleftdev/skilldex", "https://raw.example.com/master")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if m.Version != Version {
		t.Errorf("version = %q", m.Version)
	}
	if m.SkillCount != 2 || len(m.Skills) != 2 {
		t.Fatalf("skill_count = %d, skills = %+v; template must be skipped", m.SkillCount, m.Skills)
	}

	// Sorted by path: domains before languages.
	th := m.Skills[0]
	if th.ID != "threat-hunting" || th.Category != "domains" {
		t.Errorf("skills[0] = %+v", th)
	}
	if th.Subcategory != "" {
		t.Errorf("one-level skill must have no subcategory, got %q", th.Subcategory)
	}

	py := m.Skills[1]
	if py.Name != "hettinger" || py.Category != "languages" || py.Subcategory != "python" {
		t.Errorf("skills[1] = %+v", py)
	}
	if len(py.Files) != 2 || py.Files[0] != "SKILL.md" || py.Files[1] != "cheatsheet.md" {
		t.Errorf("files = %v", py.Files)
	}
	wantTags := []string{"languages", "python", "hettinger"}
	if len(py.Tags) != 3 {
		t.Fatalf("tags = %v", py.Tags)
	}
	for i, w := range wantTags {
		if py.Tags[i] != w {
			t.Errorf("tags[%d] = %q, want %q", i, py.Tags[i], w)
		}
	}
}

func TestGenerate_TagsUnderscoreDashes(t *testing.T) {
	store := seedLibrary(t)
	m, err := Generate(store, "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	th := m.Skills[0]
	if th.Tags[1] != "threat_hunting" {
		t.Errorf("tags = %v, want dashes replaced with underscores", th.Tags)
	}
}

func TestGenerate_IDFallsBackToDirName(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("paradigms/actor-model/SKILL.md", []byte("# No frontmatter here\n"))

	m, err := Generate(store, "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(m.Skills) != 1 || m.Skills[0].ID != "actor-model" {
		t.Errorf("skills = %+v, want id actor-model", m.Skills)
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	store := seedLibrary(t)
	m, err := Generate(store, "repo", "raw")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	out := filepath.Join(t.TempDir(), FileName)
	if err := Write(m, out); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SkillCount != m.SkillCount || len(loaded.Skills) != len(m.Skills) {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, m)
	}
	if loaded.Repository != "repo" || loaded.RawBaseURL != "raw" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestManifestFind(t *testing.T) {
	store := seedLibrary(t)
	m, _ := Generate(store, "", "")
	if s := m.Find("HETTINGER"); s == nil || s.Name != "hettinger" {
		t.Errorf("Find case-insensitive failed: %+v", s)
	}
	if s := m.Find("nope"); s != nil {
		t.Errorf("expected nil for unknown skill, got %+v", s)
	}
}
