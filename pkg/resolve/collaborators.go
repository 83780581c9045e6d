package resolve

import (
	"context"
	"errors"
)

// Session carries the per-call configuration collaborators need but which
// does not belong on an individual request, e.g. where the local
// repository is rooted. It stands in for Maven Resolver's RepositorySystemSession:
// a single value threaded through every collaborator call for one
// resolve invocation.
type Session struct {
	LocalRepositoryBaseDir string
	Config                 Config
}

// VersionResult is what an external VersionResolver returns: a concrete
// version, and optionally the repository it pinned the decision to.
type VersionResult struct {
	Version    string
	Repository *Repository
}

// VersionResolver turns a coordinate plus the candidate repository list
// into a concrete version. Out of scope for this library (spec.md §1);
// implementations typically walk metadata or a version range.
type VersionResolver interface {
	ResolveVersion(ctx context.Context, session *Session, req ArtifactRequest) (VersionResult, error)
}

// WorkspaceReader is the in-process provider of artifacts built by
// sibling modules, consulted before the local cache.
type WorkspaceReader interface {
	FindArtifact(ctx context.Context, a Artifact) (file string, found bool, err error)
	Repository() Repository
}

// RegistrationRequest tells the LocalRepositoryManager that an artifact
// now exists for a given repository, for the given request contexts.
type RegistrationRequest struct {
	Artifact   Artifact
	Repository Repository
	Contexts   []string
}

// LocalRepositoryManager owns the on-disk cache layout and the tracking
// metadata that answers "is this artifact known to be installed for one
// of these repositories".
type LocalRepositoryManager interface {
	Find(ctx context.Context, session *Session, a Artifact, repos []Repository, requestContext string) (LocalArtifactResult, error)
	Add(ctx context.Context, session *Session, reg RegistrationRequest) error
	PathForRemoteArtifact(a Artifact, repo Repository, requestContext string) (string, error)
	Repository() Repository
}

// Download is one artifact's pending transfer, handed to a Connector as
// part of a batched Get call.
type Download struct {
	Artifact       Artifact
	RequestContext string
	Trace          *Trace
	Destination    string
	ExistenceCheck bool
	Repositories   []Repository
	ChecksumPolicy string
	Exception      error
}

// ErrNoConnector is set as a Download's Exception when the
// ConnectorProvider cannot produce a connector for a repository.
var ErrNoConnector = errors.New("no connector available for repository")

// Connector performs the wire-level batched fetch. Implementations may
// run the batch concurrently internally; that concurrency is opaque to
// the resolver (spec.md §5).
type Connector interface {
	Get(ctx context.Context, downloads []*Download) error
	Close() error
}

// ConnectorProvider produces a Connector scoped to one repository and one
// session; the resolver acquires and releases it around exactly one
// batched Get call.
type ConnectorProvider interface {
	NewConnector(ctx context.Context, session *Session, repo Repository) (Connector, error)
}

// UpdateCheck is the stored decision about whether a cached artifact or
// cached failure is due for a re-fetch.
type UpdateCheck struct {
	Artifact   Artifact
	Repository Repository
	Required   bool
	Exception  error
}

// UpdateCheckManager implements the elapsed-time policy deciding whether
// a re-fetch is due, and persists the outcome afterward.
type UpdateCheckManager interface {
	CheckArtifact(ctx context.Context, session *Session, check *UpdateCheck) error
	TouchArtifact(ctx context.Context, session *Session, check *UpdateCheck) error
}

// OfflineController decides whether a repository may be contacted at
// all for the current session.
type OfflineController interface {
	CheckOffline(ctx context.Context, session *Session, repo Repository) (offline bool, err error)
}

// FilterDecision is the outcome of a RemoteRepositoryFilter check.
type FilterDecision struct {
	Accepted bool
	Reason   string
}

// RemoteRepositoryFilter is a pluggable per-repository, per-artifact
// accept/reject decision. A nil filter means "no filtering configured",
// which changes the locally-installed decision downstream (spec.md §4.4).
type RemoteRepositoryFilter interface {
	Accept(ctx context.Context, session *Session, repo Repository, a Artifact) FilterDecision
}

// RepositoryPolicy is the applicable snapshot/release policy plus the
// caching behavior DownloadCoordinator should apply for one repository.
type RepositoryPolicy struct {
	Enabled        bool
	ChecksumPolicy string
	CacheFailures  bool
}

// RemoteRepositoryManager supplies the policy and any mirrors applicable
// to a repository for a given artifact.
type RemoteRepositoryManager interface {
	PolicyFor(repo Repository, a Artifact) RepositoryPolicy
	MirroredRepositories(repo Repository) []Repository
}

// EventType enumerates the resolver's lifecycle events (spec.md §5
// ordering guarantees).
type EventType string

const (
	EventResolving   EventType = "ARTIFACT_RESOLVING"
	EventDownloading EventType = "ARTIFACT_DOWNLOADING"
	EventDownloaded  EventType = "ARTIFACT_DOWNLOADED"
	EventResolved    EventType = "ARTIFACT_RESOLVED"
)

// Event is one lifecycle notification.
type Event struct {
	Type       EventType
	Artifact   Artifact
	Repository *Repository
	Exceptions []error
}

// EventDispatcher is a best-effort sink for Events; a dispatch failure
// must never affect the resolution outcome.
type EventDispatcher interface {
	Dispatch(e Event)
}

// PostProcessor runs once, after every result has either a file or a
// final exception list, before the aggregate pass/fail check.
type PostProcessor interface {
	Name() string
	PostProcess(ctx context.Context, results []*ArtifactResult) error
}

// dispatch calls d.Dispatch, swallowing any panic so a misbehaving
// dispatcher can never affect resolution (spec.md §9 "Event dispatch").
func dispatch(d EventDispatcher, e Event) {
	if d == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	d.Dispatch(e)
}
