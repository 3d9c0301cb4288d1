package validate

import (
	"path/filepath"
	"testing"

	"github.com/copyleftdev/skilldex/internal/manifest"
	"github.com/copyleftdev/skilldex/internal/storage"
)

func newLibrary(t *testing.T) storage.Provider {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestLibrary_CleanPasses(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/sre/SKILL.md",
		[]byte("---\nname: sre\ndescription: Error budgets and toil\n---\n# SRE\nSee [playbook](playbook.md).\n"))
	_ = store.Write("domains/sre/playbook.md", []byte("# Playbook\n"))

	m, err := manifest.Generate(store, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := manifest.Write(m, filepath.Join(store.Root(), manifest.FileName)); err != nil {
		t.Fatal(err)
	}

	report, err := Library(store)
	if err != nil {
		t.Fatalf("Library: %v", err)
	}
	if !report.OK() {
		t.Errorf("expected clean report, got issues: %+v", report.Issues)
	}
	if report.ScannedSkills != 1 || report.ScannedDocs != 2 {
		t.Errorf("scanned skills = %d, docs = %d", report.ScannedSkills, report.ScannedDocs)
	}
}

func TestLibrary_MissingFrontmatter(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/x/SKILL.md", []byte("# No frontmatter\n"))

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK() {
		t.Fatal("expected errors")
	}
	found := false
	for _, i := range report.Issues {
		if i.Severity == SeverityError && i.Path == "domains/x/SKILL.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("no frontmatter error reported: %+v", report.Issues)
	}
}

func TestLibrary_MissingRequiredField(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/x/SKILL.md", []byte("---\nname: x\n---\nbody\n"))

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, i := range report.Issues {
		if i.Message == "missing required field: description" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing-field error not reported: %+v", report.Issues)
	}
}

func TestLibrary_BrokenLink(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("README.md", []byte("# Index\n- [domains](domains/)\n- [gone](missing/file.md)\n"))
	_ = store.Write("domains/sre/SKILL.md", []byte("---\nname: sre\ndescription: d\n---\nok\n"))

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	broken := 0
	for _, i := range report.Issues {
		if i.Severity == SeverityError && i.Path == "README.md" {
			broken++
		}
	}
	if broken != 1 {
		t.Errorf("expected exactly one broken link on README.md, got %d: %+v", broken, report.Issues)
	}
}

func TestLibrary_SkillMissingFromManifest(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/sre/SKILL.md", []byte("---\nname: sre\ndescription: d\n---\n"))

	// Manifest generated before a second skill was added.
	m, _ := manifest.Generate(store, "", "")
	_ = manifest.Write(m, filepath.Join(store.Root(), manifest.FileName))
	_ = store.Write("domains/chaos/SKILL.md", []byte("---\nname: chaos\ndescription: d\n---\n"))

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Errorf("stale catalog must be a warning, not an error: %+v", report.Issues)
	}
	if report.Warnings() == 0 {
		t.Errorf("expected a warning for uncataloged skill: %+v", report.Issues)
	}
}

func TestLibrary_ManifestEntryGone(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/sre/SKILL.md", []byte("---\nname: sre\ndescription: d\n---\n"))
	m, _ := manifest.Generate(store, "", "")
	_ = manifest.Write(m, filepath.Join(store.Root(), manifest.FileName))
	_ = store.Delete("domains/sre/SKILL.md")

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK() {
		t.Errorf("dangling manifest entry must be an error: %+v", report.Issues)
	}
}

func TestLibrary_NoManifestIsWarning(t *testing.T) {
	store := newLibrary(t)
	_ = store.Write("domains/sre/SKILL.md", []byte("---\nname: sre\ndescription: d\n---\n"))

	report, err := Library(store)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Errorf("missing manifest must not fail the lint: %+v", report.Issues)
	}
	if report.Warnings() == 0 {
		t.Error("expected missing-manifest warning")
	}
}
