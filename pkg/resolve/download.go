package resolve

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// DownloadCoordinator executes one ResolutionGroup: it gathers still-
// pending items into a connector-agnostic batch, emits
// ARTIFACT_DOWNLOADING, acquires a connector, submits the batch, and
// evaluates the outcome for each item (spec.md §4.6).
type DownloadCoordinator struct {
	lrm         LocalRepositoryManager
	connectors  ConnectorProvider
	repoManager RemoteRepositoryManager
	updateCheck UpdateCheckManager
	pathPolicy  *PathPolicy
	events      EventDispatcher
	metrics     *Metrics
	logger      logr.Logger
}

// NewDownloadCoordinator wires a coordinator from its collaborators.
func NewDownloadCoordinator(
	lrm LocalRepositoryManager,
	connectors ConnectorProvider,
	repoManager RemoteRepositoryManager,
	updateCheck UpdateCheckManager,
	pathPolicy *PathPolicy,
	events EventDispatcher,
	metrics *Metrics,
	logger logr.Logger,
) *DownloadCoordinator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &DownloadCoordinator{
		lrm:         lrm,
		connectors:  connectors,
		repoManager: repoManager,
		updateCheck: updateCheck,
		pathPolicy:  pathPolicy,
		events:      events,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run executes one group to completion: gather, emit, fetch, evaluate.
func (c *DownloadCoordinator) Run(ctx context.Context, session *Session, group *ResolutionGroup) error {
	pending := c.gather(ctx, session, group)
	if len(pending) == 0 {
		return nil
	}

	for _, item := range pending {
		repo := item.Repository
		dispatch(c.events, Event{Type: EventDownloading, Artifact: item.Artifact, Repository: &repo})
	}

	downloads := make([]*Download, 0, len(pending))
	for _, item := range pending {
		downloads = append(downloads, item.Download)
	}

	connector, err := c.connectors.NewConnector(ctx, session, group.Repository)
	if err != nil || connector == nil {
		for _, d := range downloads {
			if err != nil {
				d.Exception = fmt.Errorf("%w: %s: %v", ErrNoConnector, group.Repository.ID, err)
			} else {
				d.Exception = fmt.Errorf("%w: %s", ErrNoConnector, group.Repository.ID)
			}
		}
	} else {
		if getErr := connector.Get(ctx, downloads); getErr != nil {
			c.logger.V(1).Info("connector batch get reported an error", "repository", group.Repository.ID, "error", getErr)
		}
		if closeErr := connector.Close(); closeErr != nil {
			c.logger.V(1).Info("failed to close connector", "repository", group.Repository.ID, "error", closeErr)
		}
	}

	for _, item := range pending {
		c.evaluate(ctx, session, item)
	}
	return nil
}

// gather builds the Download descriptor for every item not yet
// short-circuited by its shared resolved flag, consulting the update
// check manager when the repository's error policy caches failures, and
// dropping items whose cached check says a re-fetch is not required.
func (c *DownloadCoordinator) gather(ctx context.Context, session *Session, group *ResolutionGroup) []*ResolutionItem {
	pending := make([]*ResolutionItem, 0, len(group.Items))

	for _, item := range group.Items {
		if item.Resolved.Get() {
			continue
		}

		dest := item.Local.File
		existenceCheck := dest != ""
		if dest == "" {
			path, err := c.lrm.PathForRemoteArtifact(item.Artifact, group.Repository, item.Result.Request.Context)
			if err != nil {
				item.Result.AddException(&TransferError{Artifact: item.Artifact, Repository: &group.Repository, Cause: err})
				continue
			}
			dest = path
		}

		policy := c.repoManager.PolicyFor(group.Repository, item.Artifact)

		download := &Download{
			Artifact:       item.Artifact,
			RequestContext: item.Result.Request.Context,
			Trace:          item.Trace,
			Destination:    dest,
			ExistenceCheck: existenceCheck,
			Repositories:   append([]Repository{group.Repository}, c.repoManager.MirroredRepositories(group.Repository)...),
			ChecksumPolicy: policy.ChecksumPolicy,
		}

		if policy.CacheFailures && c.updateCheck != nil {
			check := &UpdateCheck{Artifact: item.Artifact, Repository: group.Repository}
			if err := c.updateCheck.CheckArtifact(ctx, session, check); err != nil {
				item.Result.AddException(&TransferError{Artifact: item.Artifact, Repository: &group.Repository, Cause: err})
				continue
			}
			if !check.Required {
				if check.Exception != nil {
					item.Result.AddException(check.Exception)
				}
				continue
			}
			item.UpdateCheck = check
		}

		item.Download = download
		pending = append(pending, item)
	}

	return pending
}

// evaluate interprets the outcome of one item's Download after the batch
// Get call returned. Registration with the LRM strictly precedes the
// update-check touch, so a concurrent resolver consulting the update
// check sees the registration first and never falsely rejects a
// freshly-cached artifact (spec.md §4.6).
func (c *DownloadCoordinator) evaluate(ctx context.Context, session *Session, item *ResolutionItem) {
	d := item.Download
	result := item.Result
	repo := item.Repository

	if d.Exception == nil {
		item.Resolved.Set()
		result.Repository = &repo

		file, err := c.pathPolicy.Apply(item.Artifact, d.Destination)
		if err != nil {
			result.AddException(err)
		} else {
			item.Artifact = item.Artifact.WithFile(file)
			result.Artifact = item.Artifact

			if regErr := c.lrm.Add(ctx, session, RegistrationRequest{
				Artifact:   item.Artifact,
				Repository: repo,
				Contexts:   []string{d.RequestContext},
			}); regErr != nil {
				result.AddException(&TransferError{Artifact: item.Artifact, Repository: &repo, Cause: regErr})
			}
		}
		c.metrics.DownloadsTotal.WithLabelValues(repo.ID, "success").Inc()
	} else {
		result.AddException(&TransferError{Artifact: item.Artifact, Repository: &repo, Cause: d.Exception})
		c.metrics.DownloadsTotal.WithLabelValues(repo.ID, "failure").Inc()
	}

	if item.UpdateCheck != nil {
		item.UpdateCheck.Exception = d.Exception
		if err := c.updateCheck.TouchArtifact(ctx, session, item.UpdateCheck); err != nil {
			c.logger.V(1).Info("failed to persist update check", "artifact", item.Artifact.String(), "error", err)
		}
	}

	dispatch(c.events, Event{Type: EventDownloaded, Artifact: item.Artifact, Repository: &repo, Exceptions: exceptionSlice(d.Exception)})
}

func exceptionSlice(err error) []error {
	if err == nil {
		return nil
	}
	return []error{err}
}
