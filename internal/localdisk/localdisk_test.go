package localdisk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/basalt-build/resolve/pkg/resolve"
)

func TestManagerFindMissingArtifact(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0"}

	result, err := m.Find(context.Background(), nil, a, nil, "compile")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if result.File != "" || result.Available {
		t.Fatalf("expected no result for a missing artifact, got %+v", result)
	}
}

func TestManagerAddThenFind(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	staged := filepath.Join(dir, "staged.jar")
	if err := os.WriteFile(staged, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0", File: staged}
	if err := m.Add(context.Background(), nil, resolve.RegistrationRequest{Artifact: a}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	result, err := m.Find(context.Background(), nil, a, nil, "compile")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !result.Available {
		t.Fatalf("expected the artifact to be marked available after Add")
	}
	if _, err := os.Stat(result.File); err != nil {
		t.Fatalf("expected the registered file to exist at %s: %v", result.File, err)
	}
}

func TestManagerIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0"}

	m1, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	dest := m1.layoutPath(a)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m1.Add(context.Background(), nil, resolve.RegistrationRequest{Artifact: a.WithFile(dest)}); err != nil {
		t.Fatal(err)
	}

	m2, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	result, err := m2.Find(context.Background(), nil, a, nil, "compile")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Available {
		t.Fatalf("expected the registration to survive reopening the manager")
	}
}
