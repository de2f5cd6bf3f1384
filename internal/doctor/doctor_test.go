package doctor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tormodhaugland/nodepick/internal/document"
	"github.com/tormodhaugland/nodepick/internal/operation"
	"github.com/tormodhaugland/nodepick/internal/picker"
)

func writeFile(t *testing.T, root, rel, content string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestCheckDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.xml", `<topic id="a"/>`, 0o644)
	writeFile(t, root, "ro.xml", `<topic id="b"/>`, 0o444)
	writeFile(t, root, "bad.xml", `<a><b></a>`, 0o644)
	writeFile(t, root, "notes.txt", `hello`, 0o644)

	report, err := CheckDocuments(context.Background(),
		[]string{"bad.xml", "notes.txt", "ok.xml", "ro.xml"},
		document.LoadOptions{Root: root})
	if err != nil {
		t.Fatalf("CheckDocuments: %v", err)
	}

	if report.Checked != 4 {
		t.Errorf("Checked = %d, want 4", report.Checked)
	}
	if report.Operable != 1 {
		t.Errorf("Operable = %d, want 1", report.Operable)
	}
	if len(report.ReadOnly) != 1 || report.ReadOnly[0] != "ro.xml" {
		t.Errorf("ReadOnly = %v, want [ro.xml]", report.ReadOnly)
	}
	if len(report.Problems) != 2 {
		t.Fatalf("Problems = %v, want 2", report.Problems)
	}
	if report.Problems[0].Subject != "bad.xml" || report.Problems[1].Subject != "notes.txt" {
		t.Errorf("unexpected problem subjects: %v", report.Problems)
	}
}

func TestCheckDocumentsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CheckDocuments(ctx, []string{"a.xml"}, document.LoadOptions{Root: t.TempDir()}); err == nil {
		t.Fatal("expected context error")
	}
}

func newStore(t *testing.T, src string) *document.Manager {
	t.Helper()
	doc, err := document.ParseXML("a.xml", strings.NewReader(src), document.ParseOptions{Operable: true})
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	m := document.NewManager()
	if err := m.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return m
}

func validOptions() picker.Options {
	return picker.Options{
		LinkableElementsQuery:   "//*[@id]",
		ModalTitle:              "Insert link",
		ModalPrimaryButtonLabel: "Insert",
	}
}

func TestCheckProfile(t *testing.T) {
	store := newStore(t, `<topic id="a"><p id="p1">x</p></topic>`)
	reg := operation.NewRegistry()
	operation.RegisterBuiltins(reg, nil)

	if problems := CheckProfile("link", validOptions(), store, reg); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}

	cases := map[string]func(*picker.Options){
		"incomplete":        func(o *picker.Options) { o.ModalTitle = "" },
		"unknown operation": func(o *picker.Options) { o.InsertOperationName = "missing" },
		"invalid query":     func(o *picker.Options) { o.LinkableElementsQuery = "//*[" },
		"no matches":        func(o *picker.Options) { o.LinkableElementsQuery = "//section" },
	}
	for name, mutate := range cases {
		opts := validOptions()
		mutate(&opts)
		problems := CheckProfile("link", opts, store, reg)
		if len(problems) != 1 {
			t.Errorf("%s: problems = %v, want 1", name, problems)
			continue
		}
		if problems[0].Kind != KindProfile || problems[0].Subject != "link" {
			t.Errorf("%s: unexpected problem %v", name, problems[0])
		}
	}
}

func TestCheckProfileWithoutOperableDocuments(t *testing.T) {
	problems := CheckProfile("link", validOptions(), document.NewManager(), nil)
	if len(problems) != 1 || !strings.Contains(problems[0].Message, "no operable documents") {
		t.Fatalf("problems = %v", problems)
	}
}
