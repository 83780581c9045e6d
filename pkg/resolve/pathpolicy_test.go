package resolve

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPathPolicyLeavesReleaseVersionsAlone(t *testing.T) {
	p := NewPathPolicy(Config{SnapshotNormalization: true})
	a := Artifact{Version: "1.0.0", BaseVersion: "1.0.0"}

	got, err := p.Apply(a, "/cache/a-1.0.0.jar")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got != "/cache/a-1.0.0.jar" {
		t.Fatalf("Apply should return the source path unchanged, got %q", got)
	}
}

func TestPathPolicyNormalizesSnapshotAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a-1.0-20240101.010101-1.jar")
	if err := os.WriteFile(src, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPathPolicy(Config{SnapshotNormalization: true})
	a := Artifact{Version: "1.0-20240101.010101-1", BaseVersion: "1.0-SNAPSHOT"}

	dest, err := p.Apply(a, src)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	wantDest := filepath.Join(dir, "a-1.0-SNAPSHOT.jar")
	if dest != wantDest {
		t.Fatalf("Apply() = %q, want %q", dest, wantDest)
	}

	info1, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("normalized file was not created: %v", err)
	}

	// Re-applying with the source unchanged must not rewrite the file:
	// confirm the destination mtime is left exactly as before.
	time.Sleep(10 * time.Millisecond)
	dest2, err := p.Apply(a, src)
	if err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
	info2, err := os.Stat(dest2)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Fatalf("idempotent Apply should not rewrite an already-normalized file")
	}
}

func TestPathPolicyDisabledReturnsSourceUnchanged(t *testing.T) {
	p := NewPathPolicy(Config{SnapshotNormalization: false})
	a := Artifact{Version: "1.0-20240101.010101-1", BaseVersion: "1.0-SNAPSHOT"}

	got, err := p.Apply(a, "/cache/a-1.0-20240101.010101-1.jar")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got != "/cache/a-1.0-20240101.010101-1.jar" {
		t.Fatalf("disabled policy should return the source path unchanged, got %q", got)
	}
}
