package resolve

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
)

// Orchestrator is the top-level batch artifact resolver (spec.md §4.1).
// It fans each request through filtering, version resolution, workspace
// and local-cache lookup, then coordinates any remaining downloads under
// a two-phase shared/exclusive lock so concurrent callers resolving
// against the same local cache cooperate instead of racing.
type Orchestrator struct {
	sync        *SyncContext
	versions    VersionResolver
	workspace   WorkspaceReader
	lrm         LocalRepositoryManager
	filter      *FilterGate
	offline     *OfflineGate
	repoManager RemoteRepositoryManager
	connectors  ConnectorProvider
	updateCheck UpdateCheckManager
	events      EventDispatcher
	postProcs   []PostProcessor
	pathPolicy  *PathPolicy
	metrics     *Metrics
	config      Config
	logger      logr.Logger
}

// OrchestratorOptions configures a new Orchestrator. VersionResolver,
// LocalRepositoryManager, RemoteRepositoryManager, and Connectors are
// required; everything else is optional and degrades gracefully when
// left unset (no workspace, no filter, never offline, no events, no
// post-processors).
type OrchestratorOptions struct {
	SyncContext             *SyncContext
	VersionResolver         VersionResolver
	Workspace               WorkspaceReader
	LocalRepositoryManager  LocalRepositoryManager
	Filter                  RemoteRepositoryFilter
	Offline                 OfflineController
	RemoteRepositoryManager RemoteRepositoryManager
	Connectors              ConnectorProvider
	UpdateCheck             UpdateCheckManager
	Events                  EventDispatcher
	PostProcessors          []PostProcessor
	Metrics                 *Metrics
	Config                  Config
	Logger                  logr.Logger
}

// NewOrchestrator constructs an Orchestrator from opts, applying the same
// kind of defensive defaults the teacher's NewWorkerPool and NewResolver
// constructors apply (discard logger when unset, lazily build a
// SyncContext and Metrics when none is supplied).
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.SyncContext == nil {
		opts.SyncContext = NewSyncContext()
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	return &Orchestrator{
		sync:        opts.SyncContext,
		versions:    opts.VersionResolver,
		workspace:   opts.Workspace,
		lrm:         opts.LocalRepositoryManager,
		filter:      NewFilterGate(opts.Filter),
		offline:     NewOfflineGate(opts.Offline, time.Duration(opts.Config.OfflineCheckTTLSeconds)*time.Second),
		repoManager: opts.RemoteRepositoryManager,
		connectors:  opts.Connectors,
		updateCheck: opts.UpdateCheck,
		events:      opts.Events,
		postProcs:   opts.PostProcessors,
		pathPolicy:  NewPathPolicy(opts.Config),
		metrics:     opts.Metrics,
		config:      opts.Config,
		logger:      opts.Logger,
	}
}

// ResolveArtifact is a convenience wrapper over ResolveArtifacts for a
// single request.
func (o *Orchestrator) ResolveArtifact(ctx context.Context, session *Session, req ArtifactRequest) (*ArtifactResult, error) {
	results, err := o.ResolveArtifacts(ctx, session, []ArtifactRequest{req})
	if len(results) == 0 {
		return nil, err
	}
	return results[0], err
}

// ResolveArtifacts implements the two-phase resolve loop of spec.md §4.1.
func (o *Orchestrator) ResolveArtifacts(ctx context.Context, session *Session, requests []ArtifactRequest) ([]*ArtifactResult, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		o.metrics.ResolutionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	results := make([]*ArtifactResult, len(requests))
	for i, req := range requests {
		results[i] = &ArtifactResult{Request: req, Artifact: req.Artifact}
	}

	if len(requests) == 0 {
		return results, nil
	}

	keys := subjectKeys(requests)

	shared := o.sync.AcquireShared(keys)
	groups := o.plan(ctx, session, requests, results, true)

	if len(groups) > 0 {
		shared.Release()
		exclusive := o.sync.AcquireExclusive(keys)
		defer exclusive.Release()

		for _, res := range results {
			resetResult(res)
		}
		groups = o.plan(ctx, session, requests, results, false)
	} else {
		defer shared.Release()
	}

	coordinator := NewDownloadCoordinator(o.lrm, o.connectors, o.repoManager, o.updateCheck, o.pathPolicy, o.events, o.metrics, o.logger)
	for _, group := range groups {
		if err := coordinator.Run(ctx, session, group); err != nil {
			outcome = "failure"
			return results, fmt.Errorf("download coordinator failed for repository %s: %w", group.Repository.ID, err)
		}
	}

	for _, pp := range o.postProcs {
		if err := pp.PostProcess(ctx, results); err != nil {
			outcome = "failure"
			return results, fmt.Errorf("post processor %q failed: %w", pp.Name(), err)
		}
	}

	failed := false
	for _, res := range results {
		if res.Artifact.File == "" && len(res.Exceptions) == 0 {
			res.AddException(&NotFoundError{Artifact: res.Artifact, Reason: "no repository produced this artifact"})
		}
		dispatch(o.events, Event{Type: EventResolved, Artifact: res.Artifact, Repository: res.Repository, Exceptions: res.Exceptions})
		if !res.Successful() {
			failed = true
			o.metrics.ResolveRequestsTotal.WithLabelValues("failure").Inc()
		} else {
			o.metrics.ResolveRequestsTotal.WithLabelValues("success").Inc()
		}
	}

	if failed {
		outcome = "failure"
		return results, &ResolutionFailure{Results: results}
	}
	return results, nil
}

// plan runs the per-request pipeline (spec.md §4.2) for every request,
// returning the ResolutionGroups still needing a download. The shared
// pass emits ARTIFACT_RESOLVING once per non-pre-hosted artifact; the
// exclusive restart, if any, does not re-emit it.
func (o *Orchestrator) plan(ctx context.Context, session *Session, requests []ArtifactRequest, results []*ArtifactResult, emitResolving bool) []*ResolutionGroup {
	scheduler := NewGroupScheduler()

	for i, req := range requests {
		result := results[i]
		a := req.Artifact

		if emitResolving {
			if _, prehosted := a.LocalPath(); !prehosted {
				dispatch(o.events, Event{Type: EventResolving, Artifact: a})
			}
		}

		if localPath, ok := a.LocalPath(); ok {
			o.resolvePreHosted(a, localPath, result)
			continue
		}

		scheduler.StartRequest()
		o.resolveOne(ctx, session, req, result, scheduler)
	}

	return scheduler.Groups()
}

// resolvePreHosted implements spec.md §4.2 step 1: a caller-supplied file
// short-circuits every other collaborator.
func (o *Orchestrator) resolvePreHosted(a Artifact, path string, result *ArtifactResult) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		result.AddException(&NotFoundError{Artifact: a, Reason: fmt.Sprintf("pre-hosted file %s is missing or not a regular file", path)})
		return
	}
	result.Artifact = a.WithFile(path)
}

// resolveOne implements spec.md §4.2 steps 2-7 for one request.
func (o *Orchestrator) resolveOne(ctx context.Context, session *Session, req ArtifactRequest, result *ArtifactResult, scheduler *GroupScheduler) {
	a := req.Artifact

	filtered := o.filter.Apply(ctx, session, a, req.Repositories, result)

	verResult, err := o.versions.ResolveVersion(ctx, session, ArtifactRequest{
		Artifact:     a,
		Repositories: filtered,
		Context:      req.Context,
		Trace:        req.Trace,
	})
	if err != nil {
		result.AddException(&VersionError{Artifact: a, Cause: err})
		return
	}
	a = a.WithVersion(verResult.Version)
	result.Artifact = a

	if verResult.Repository != nil {
		if verResult.Repository.Kind == RepositoryKindRemote {
			filtered = []Repository{*verResult.Repository}
		} else {
			// Local, or any other repository kind the version resolver
			// might pin to, forces local-only success (spec.md §9 Open
			// Questions: behavior preserved from the source, flagged).
			filtered = nil
		}
	}

	if o.workspace != nil {
		if file, found, wsErr := o.workspace.FindArtifact(ctx, a); wsErr != nil {
			result.AddException(&NotFoundError{Artifact: a, Reason: fmt.Sprintf("workspace lookup failed: %v", wsErr)})
		} else if found {
			a = a.WithFile(file)
			result.Artifact = a
			ws := o.workspace.Repository()
			result.Repository = &ws
			o.metrics.LocalHitsTotal.WithLabelValues("workspace").Inc()
			return
		}
	}

	local, err := o.lrm.Find(ctx, session, a, filtered, req.Context)
	if err != nil {
		result.AddException(&TransferError{Artifact: a, Cause: err})
		return
	}
	result.Local = local

	if Found(o.filter.Active(), local, verResult, req.Repositories) {
		o.resolveLocallyInstalled(ctx, session, a, local, req, result)
		return
	}

	o.planDownloads(ctx, session, a, filtered, local, req, result, scheduler)
}

// resolveLocallyInstalled implements spec.md §4.2 step 6 and the §4.4
// legacy interop rule.
func (o *Orchestrator) resolveLocallyInstalled(ctx context.Context, session *Session, a Artifact, local LocalArtifactResult, req ArtifactRequest, result *ArtifactResult) {
	file := local.File
	if file == "" {
		file = a.File
	}

	normalized, err := o.pathPolicy.Apply(a, file)
	if err != nil {
		result.AddException(err)
		return
	}

	a = a.WithFile(normalized)
	result.Artifact = a
	result.Repository = &local.Repository
	o.metrics.LocalHitsTotal.WithLabelValues("local").Inc()

	if !o.filter.Active() && o.config.SimpleLrmInterop && !local.Available {
		if regErr := o.lrm.Add(ctx, session, RegistrationRequest{
			Artifact:   a,
			Repository: local.Repository,
			Contexts:   []string{req.Context},
		}); regErr != nil {
			result.AddException(&TransferError{Artifact: a, Repository: &local.Repository, Cause: regErr})
		}
	}
}

// planDownloads implements spec.md §4.2 step 7: for each remaining
// candidate repository, apply the repository policy and offline gate,
// then bucket the survivors into the GroupScheduler.
func (o *Orchestrator) planDownloads(ctx context.Context, session *Session, a Artifact, filtered []Repository, local LocalArtifactResult, req ArtifactRequest, result *ArtifactResult, scheduler *GroupScheduler) {
	flag := scheduler.FlagFor(a.Key())

	for _, repo := range filtered {
		policy := o.repoManager.PolicyFor(repo, a)
		if !policy.Enabled {
			continue
		}

		offline, err := o.offline.IsOffline(ctx, session, repo)
		if err != nil {
			result.AddException(&NotFoundError{Artifact: a, Repository: &repo, Reason: fmt.Sprintf("offline check failed: %v", err)})
			continue
		}
		if offline {
			result.AddException(&NotFoundError{Artifact: a, Repository: &repo, Reason: fmt.Sprintf("repository %s (%s) is offline", repo.ID, repo.URL)})
			continue
		}

		group := scheduler.Place(repo)
		group.Items = append(group.Items, &ResolutionItem{
			Trace:      req.Trace,
			Artifact:   a,
			Resolved:   flag,
			Result:     result,
			Local:      local,
			Repository: repo,
		})
	}
}

// subjectKeys collects the distinct artifact subjects to lock, excluding
// pre-hosted (local_path) artifacts per spec.md §5.
func subjectKeys(requests []ArtifactRequest) []string {
	seen := make(map[string]struct{}, len(requests))
	keys := make([]string, 0, len(requests))
	for _, req := range requests {
		if _, ok := req.Artifact.LocalPath(); ok {
			continue
		}
		k := req.Artifact.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
