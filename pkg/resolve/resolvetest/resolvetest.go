// Package resolvetest provides in-memory fakes for every collaborator
// interface in package resolve, for use in tests of code that wires an
// Orchestrator together.
package resolvetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/basalt-build/resolve/pkg/resolve"
)

// FixedVersionResolver returns a version resolved to the artifact's
// existing version, optionally pinned to a repository.
type FixedVersionResolver struct {
	Repository *resolve.Repository
	Err        error
}

func (f *FixedVersionResolver) ResolveVersion(_ context.Context, _ *resolve.Session, req resolve.ArtifactRequest) (resolve.VersionResult, error) {
	if f.Err != nil {
		return resolve.VersionResult{}, f.Err
	}
	return resolve.VersionResult{Version: req.Artifact.Version, Repository: f.Repository}, nil
}

// Workspace is an in-memory WorkspaceReader keyed by artifact Key().
type Workspace struct {
	repo  resolve.Repository
	files map[string]string
}

// NewWorkspace constructs an empty Workspace reporting repo as its
// synthetic repository.
func NewWorkspace(repo resolve.Repository) *Workspace {
	return &Workspace{repo: repo, files: make(map[string]string)}
}

// Put registers a.Key() as locally buildable at file.
func (w *Workspace) Put(a resolve.Artifact, file string) {
	w.files[a.Key()] = file
}

func (w *Workspace) FindArtifact(_ context.Context, a resolve.Artifact) (string, bool, error) {
	file, ok := w.files[a.Key()]
	return file, ok, nil
}

func (w *Workspace) Repository() resolve.Repository {
	return w.repo
}

// LocalRepositoryManager is an in-memory LocalRepositoryManager recording
// every registration it receives, for assertions on registration order
// and content.
type LocalRepositoryManager struct {
	mu            sync.Mutex
	repo          resolve.Repository
	installed     map[string]resolve.LocalArtifactResult
	Registrations []resolve.RegistrationRequest
	PathForFunc   func(a resolve.Artifact, repo resolve.Repository, requestContext string) (string, error)
}

// NewLocalRepositoryManager constructs an empty LocalRepositoryManager
// reporting repo as its own repository.
func NewLocalRepositoryManager(repo resolve.Repository) *LocalRepositoryManager {
	return &LocalRepositoryManager{repo: repo, installed: make(map[string]resolve.LocalArtifactResult)}
}

// Seed pre-populates the cache-tracking record for a.Key().
func (l *LocalRepositoryManager) Seed(a resolve.Artifact, result resolve.LocalArtifactResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.installed[a.Key()] = result
}

func (l *LocalRepositoryManager) Find(_ context.Context, _ *resolve.Session, a resolve.Artifact, _ []resolve.Repository, _ string) (resolve.LocalArtifactResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.installed[a.Key()], nil
}

func (l *LocalRepositoryManager) Add(_ context.Context, _ *resolve.Session, reg resolve.RegistrationRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Registrations = append(l.Registrations, reg)
	l.installed[reg.Artifact.Key()] = resolve.LocalArtifactResult{
		File:       reg.Artifact.File,
		Available:  true,
		Repository: reg.Repository,
	}
	return nil
}

func (l *LocalRepositoryManager) PathForRemoteArtifact(a resolve.Artifact, repo resolve.Repository, requestContext string) (string, error) {
	if l.PathForFunc != nil {
		return l.PathForFunc(a, repo, requestContext)
	}
	return fmt.Sprintf("/local-repo/%s/%s/%s", a.GroupID, a.ArtifactID, a.Version), nil
}

func (l *LocalRepositoryManager) Repository() resolve.Repository {
	return l.repo
}

// Connector is a scripted Connector: GetFunc, if set, handles each batched
// Get call (writing destinations or setting per-download exceptions),
// CloseFunc, if set, handles Close, and Calls counts Get invocations.
type Connector struct {
	Calls     int32
	GetFunc   func(ctx context.Context, downloads []*resolve.Download) error
	CloseFunc func() error
}

func (c *Connector) Get(ctx context.Context, downloads []*resolve.Download) error {
	atomic.AddInt32(&c.Calls, 1)
	if c.GetFunc != nil {
		return c.GetFunc(ctx, downloads)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.CloseFunc != nil {
		return c.CloseFunc()
	}
	return nil
}

// ConnectorProvider hands out a fixed *Connector per repository ID and
// counts how many times each repository's connector was requested, so
// tests can assert a connector was built exactly once per group.
type ConnectorProvider struct {
	mu         sync.Mutex
	connectors map[string]*Connector
	NewErr     map[string]error
	Requests   map[string]int
}

func NewConnectorProvider() *ConnectorProvider {
	return &ConnectorProvider{
		connectors: make(map[string]*Connector),
		NewErr:     make(map[string]error),
		Requests:   make(map[string]int),
	}
}

// Register installs conn as the connector produced for repo.ID.
func (p *ConnectorProvider) Register(repoID string, conn *Connector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectors[repoID] = conn
}

func (p *ConnectorProvider) NewConnector(_ context.Context, _ *resolve.Session, repo resolve.Repository) (resolve.Connector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests[repo.ID]++
	if err, ok := p.NewErr[repo.ID]; ok {
		return nil, err
	}
	conn, ok := p.connectors[repo.ID]
	if !ok {
		return &Connector{}, nil
	}
	return conn, nil
}

// RequestCount reports how many times a connector was requested for repoID.
func (p *ConnectorProvider) RequestCount(repoID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Requests[repoID]
}

// UpdateCheckManager is a permissive UpdateCheckManager that always
// reports a check is required and records every touch it receives.
type UpdateCheckManager struct {
	mu      sync.Mutex
	Touches []*resolve.UpdateCheck
}

func NewUpdateCheckManager() *UpdateCheckManager {
	return &UpdateCheckManager{}
}

func (u *UpdateCheckManager) CheckArtifact(_ context.Context, _ *resolve.Session, check *resolve.UpdateCheck) error {
	check.Required = true
	return nil
}

func (u *UpdateCheckManager) TouchArtifact(_ context.Context, _ *resolve.Session, check *resolve.UpdateCheck) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Touches = append(u.Touches, check)
	return nil
}

// OfflineController reports a fixed offline status per repository ID,
// defaulting to online, and counts delegate calls so tests can verify the
// caching OfflineGate collapses repeated checks.
type OfflineController struct {
	mu      sync.Mutex
	offline map[string]bool
	Calls   int32
}

func NewOfflineController() *OfflineController {
	return &OfflineController{offline: make(map[string]bool)}
}

func (o *OfflineController) SetOffline(repoID string, offline bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline[repoID] = offline
}

func (o *OfflineController) CheckOffline(_ context.Context, _ *resolve.Session, repo resolve.Repository) (bool, error) {
	atomic.AddInt32(&o.Calls, 1)
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offline[repo.ID], nil
}

// Filter is a RemoteRepositoryFilter that rejects any repository whose ID
// is in Rejected.
type Filter struct {
	Rejected map[string]string
}

func NewFilter() *Filter {
	return &Filter{Rejected: make(map[string]string)}
}

func (f *Filter) Reject(repoID, reason string) {
	f.Rejected[repoID] = reason
}

func (f *Filter) Accept(_ context.Context, _ *resolve.Session, repo resolve.Repository, _ resolve.Artifact) resolve.FilterDecision {
	if reason, rejected := f.Rejected[repo.ID]; rejected {
		return resolve.FilterDecision{Accepted: false, Reason: reason}
	}
	return resolve.FilterDecision{Accepted: true}
}

// RepositoryManager is a RemoteRepositoryManager returning a fixed,
// always-enabled policy unless overridden per repository ID.
type RepositoryManager struct {
	Policies map[string]resolve.RepositoryPolicy
	Mirrors  map[string][]resolve.Repository
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		Policies: make(map[string]resolve.RepositoryPolicy),
		Mirrors:  make(map[string][]resolve.Repository),
	}
}

func (r *RepositoryManager) PolicyFor(repo resolve.Repository, _ resolve.Artifact) resolve.RepositoryPolicy {
	if p, ok := r.Policies[repo.ID]; ok {
		return p
	}
	return resolve.RepositoryPolicy{Enabled: true}
}

func (r *RepositoryManager) MirroredRepositories(repo resolve.Repository) []resolve.Repository {
	return r.Mirrors[repo.ID]
}

// EventRecorder is an EventDispatcher collecting every dispatched Event in
// order, safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	Events []resolve.Event
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Dispatch(e resolve.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

func (r *EventRecorder) Snapshot() []resolve.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]resolve.Event, len(r.Events))
	copy(out, r.Events)
	return out
}

// PanickingDispatcher always panics, for exercising dispatch's recover.
type PanickingDispatcher struct{}

func (PanickingDispatcher) Dispatch(resolve.Event) {
	panic("resolvetest: PanickingDispatcher always panics")
}

// PostProcessor runs Func if set, otherwise succeeds as a no-op.
type PostProcessor struct {
	NameValue string
	Func      func(ctx context.Context, results []*resolve.ArtifactResult) error
}

func (p *PostProcessor) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "resolvetest.PostProcessor"
}

func (p *PostProcessor) PostProcess(ctx context.Context, results []*resolve.ArtifactResult) error {
	if p.Func != nil {
		return p.Func(ctx, results)
	}
	return nil
}
