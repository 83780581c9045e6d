package resolve_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/basalt-build/resolve/pkg/resolve"
	"github.com/basalt-build/resolve/pkg/resolve/resolvetest"
)

// countResolved returns how many EventResolved events recorder captured
// for the artifact identified by key.
func countResolved(events []resolve.Event, key string) int {
	n := 0
	for _, e := range events {
		if e.Type == resolve.EventResolved && e.Artifact.Key() == key {
			n++
		}
	}
	return n
}

// TestResolveEventsResolvedFiresOnceWorkspace confirms a workspace hit
// dispatches exactly one RESOLVED event, not one at the workspace branch
// and a second from the final aggregation loop.
func TestResolveEventsResolvedFiresOnceWorkspace(t *testing.T) {
	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0"}

	ws := resolvetest.NewWorkspace(resolve.Repository{ID: "workspace", Kind: resolve.RepositoryKindLocal})
	ws.Put(a, "/workspace/widget.jar")

	recorder := resolvetest.NewEventRecorder()
	o := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         &resolvetest.FixedVersionResolver{},
		Workspace:               ws,
		LocalRepositoryManager:  resolvetest.NewLocalRepositoryManager(resolve.Repository{ID: "local", Kind: resolve.RepositoryKindLocal}),
		RemoteRepositoryManager: resolvetest.NewRepositoryManager(),
		Connectors:              resolvetest.NewConnectorProvider(),
		Events:                  recorder,
		Config:                  resolve.DefaultConfig(),
	})

	result, err := o.ResolveArtifact(context.Background(), &resolve.Session{}, resolve.ArtifactRequest{Artifact: a, Context: "compile"})
	if err != nil {
		t.Fatalf("ResolveArtifact returned error: %v", err)
	}
	if !result.Successful() {
		t.Fatalf("expected success, exceptions: %v", result.Exceptions)
	}
	if n := countResolved(recorder.Snapshot(), a.Key()); n != 1 {
		t.Fatalf("expected exactly 1 RESOLVED event for a workspace hit, got %d", n)
	}
}

// TestResolveEventsResolvedFiresOnceLocalCache confirms an already
// locally-installed artifact dispatches exactly one RESOLVED event.
func TestResolveEventsResolvedFiresOnceLocalCache(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "widget-1.0.0.jar")
	writeFile(t, src, "payload")

	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0"}

	lrm := resolvetest.NewLocalRepositoryManager(resolve.Repository{ID: "local", Kind: resolve.RepositoryKindLocal})
	lrm.Seed(a, resolve.LocalArtifactResult{File: src, Available: true, Repository: resolve.Repository{ID: "local", Kind: resolve.RepositoryKindLocal}})

	recorder := resolvetest.NewEventRecorder()
	o := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         &resolvetest.FixedVersionResolver{},
		LocalRepositoryManager:  lrm,
		RemoteRepositoryManager: resolvetest.NewRepositoryManager(),
		Connectors:              resolvetest.NewConnectorProvider(),
		Events:                  recorder,
		Config:                  resolve.DefaultConfig(),
	})

	result, err := o.ResolveArtifact(context.Background(), &resolve.Session{}, resolve.ArtifactRequest{Artifact: a, Context: "compile"})
	if err != nil {
		t.Fatalf("ResolveArtifact returned error: %v", err)
	}
	if !result.Successful() {
		t.Fatalf("expected success, exceptions: %v", result.Exceptions)
	}
	if n := countResolved(recorder.Snapshot(), a.Key()); n != 1 {
		t.Fatalf("expected exactly 1 RESOLVED event for a local cache hit, got %d", n)
	}
}

// TestResolveEventsResolvedFiresOnceDownload confirms a successful
// download dispatches exactly one RESOLVED event, not one from
// DownloadCoordinator.evaluate and a second from the final aggregation
// loop.
func TestResolveEventsResolvedFiresOnceDownload(t *testing.T) {
	dir := t.TempDir()
	a := resolve.Artifact{GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0"}
	repo := remoteRepo("central")

	lrm := resolvetest.NewLocalRepositoryManager(resolve.Repository{ID: "local", Kind: resolve.RepositoryKindLocal})
	lrm.PathForFunc = func(a resolve.Artifact, repo resolve.Repository, requestContext string) (string, error) {
		return filepath.Join(dir, a.ArtifactID+".jar"), nil
	}

	conns := resolvetest.NewConnectorProvider()
	conns.Register(repo.ID, &resolvetest.Connector{
		GetFunc: func(_ context.Context, downloads []*resolve.Download) error {
			for _, d := range downloads {
				writeFile(t, d.Destination, "payload")
			}
			return nil
		},
	})

	recorder := resolvetest.NewEventRecorder()
	o := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         &resolvetest.FixedVersionResolver{},
		LocalRepositoryManager:  lrm,
		RemoteRepositoryManager: resolvetest.NewRepositoryManager(),
		Connectors:              conns,
		Events:                  recorder,
		Config:                  resolve.DefaultConfig(),
	})

	result, err := o.ResolveArtifact(context.Background(), &resolve.Session{}, resolve.ArtifactRequest{
		Artifact:     a,
		Repositories: []resolve.Repository{repo},
		Context:      "compile",
	})
	if err != nil {
		t.Fatalf("ResolveArtifact returned error: %v", err)
	}
	if !result.Successful() {
		t.Fatalf("expected success, exceptions: %v", result.Exceptions)
	}
	if n := countResolved(recorder.Snapshot(), a.Key()); n != 1 {
		t.Fatalf("expected exactly 1 RESOLVED event for a successful download, got %d", n)
	}
}

// TestResolveEventsResolvedFiresOncePreHosted confirms a caller-supplied
// local_path artifact dispatches exactly one RESOLVED event even though
// it bypasses the shared/exclusive planning passes entirely.
func TestResolveEventsResolvedFiresOncePreHosted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.jar")
	writeFile(t, path, "payload")

	a := resolve.Artifact{
		GroupID: "com.example", ArtifactID: "widget", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0",
		Properties: map[string]string{"local_path": path},
	}

	recorder := resolvetest.NewEventRecorder()
	o := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         &resolvetest.FixedVersionResolver{},
		LocalRepositoryManager:  resolvetest.NewLocalRepositoryManager(resolve.Repository{}),
		RemoteRepositoryManager: resolvetest.NewRepositoryManager(),
		Connectors:              resolvetest.NewConnectorProvider(),
		Events:                  recorder,
		Config:                  resolve.DefaultConfig(),
	})

	result, err := o.ResolveArtifact(context.Background(), &resolve.Session{}, resolve.ArtifactRequest{Artifact: a, Context: "compile"})
	if err != nil {
		t.Fatalf("ResolveArtifact returned error: %v", err)
	}
	if !result.Successful() {
		t.Fatalf("expected success, exceptions: %v", result.Exceptions)
	}
	if n := countResolved(recorder.Snapshot(), a.Key()); n != 1 {
		t.Fatalf("expected exactly 1 RESOLVED event for a pre-hosted artifact, got %d", n)
	}

	// A pre-hosted artifact never touches the EventResolving/EventDownloading
	// machinery; only RESOLVED should appear for it.
	for _, e := range recorder.Snapshot() {
		if e.Artifact.Key() == a.Key() && e.Type != resolve.EventResolved {
			t.Fatalf("unexpected event type %v dispatched for a pre-hosted artifact", e.Type)
		}
	}
}

// TestResolveEventsResolvedCountMatchesResultsBatch confirms spec.md §8's
// testable property directly: across a batch mixing a workspace hit, a
// download, and a pre-hosted artifact, the number of RESOLVED events
// equals the number of results.
func TestResolveEventsResolvedCountMatchesResultsBatch(t *testing.T) {
	dir := t.TempDir()

	hostedPath := filepath.Join(dir, "hosted.jar")
	writeFile(t, hostedPath, "payload")

	wsArtifact := resolve.Artifact{GroupID: "com.example", ArtifactID: "alpha", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0"}
	dlArtifact := resolve.Artifact{GroupID: "com.example", ArtifactID: "beta", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0"}
	preHosted := resolve.Artifact{
		GroupID: "com.example", ArtifactID: "gamma", Extension: "jar", Version: "1.0.0", BaseVersion: "1.0.0",
		Properties: map[string]string{"local_path": hostedPath},
	}

	ws := resolvetest.NewWorkspace(resolve.Repository{ID: "workspace", Kind: resolve.RepositoryKindLocal})
	ws.Put(wsArtifact, "/workspace/alpha.jar")

	repo := remoteRepo("central")
	lrm := resolvetest.NewLocalRepositoryManager(resolve.Repository{ID: "local", Kind: resolve.RepositoryKindLocal})
	lrm.PathForFunc = func(a resolve.Artifact, repo resolve.Repository, requestContext string) (string, error) {
		return filepath.Join(dir, a.ArtifactID+".jar"), nil
	}

	conns := resolvetest.NewConnectorProvider()
	conns.Register(repo.ID, &resolvetest.Connector{
		GetFunc: func(_ context.Context, downloads []*resolve.Download) error {
			for _, d := range downloads {
				writeFile(t, d.Destination, "payload")
			}
			return nil
		},
	})

	recorder := resolvetest.NewEventRecorder()
	o := resolve.NewOrchestrator(resolve.OrchestratorOptions{
		VersionResolver:         &resolvetest.FixedVersionResolver{},
		Workspace:               ws,
		LocalRepositoryManager:  lrm,
		RemoteRepositoryManager: resolvetest.NewRepositoryManager(),
		Connectors:              conns,
		Events:                  recorder,
		Config:                  resolve.DefaultConfig(),
	})

	requests := []resolve.ArtifactRequest{
		{Artifact: wsArtifact, Context: "compile"},
		{Artifact: dlArtifact, Repositories: []resolve.Repository{repo}, Context: "compile"},
		{Artifact: preHosted, Context: "compile"},
	}
	results, err := o.ResolveArtifacts(context.Background(), &resolve.Session{}, requests)
	if err != nil {
		t.Fatalf("ResolveArtifacts returned error: %v", err)
	}

	resolved := 0
	for _, e := range recorder.Snapshot() {
		if e.Type == resolve.EventResolved {
			resolved++
		}
	}
	if resolved != len(results) {
		t.Fatalf("RESOLVED event count = %d, want %d (one per result)", resolved, len(results))
	}
}
