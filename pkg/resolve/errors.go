package resolve

import "fmt"

// NotFoundError records that no tier produced the artifact: the version
// resolver, workspace, local cache, and every remaining remote repository
// (filtered out, offline, or otherwise) all came up empty.
type NotFoundError struct {
	Artifact   Artifact
	Repository *Repository
	Reason     string
}

func (e *NotFoundError) Error() string {
	if e.Repository != nil {
		return fmt.Sprintf("could not find artifact %s in %s (%s): %s", e.Artifact, e.Repository.ID, e.Repository.URL, e.Reason)
	}
	return fmt.Sprintf("could not find artifact %s: %s", e.Artifact, e.Reason)
}

// FilteredOutError records that a RemoteRepositoryFilter rejected a
// candidate repository for an artifact.
type FilteredOutError struct {
	Artifact   Artifact
	Repository Repository
	Reason     string
}

func (e *FilteredOutError) Error() string {
	return fmt.Sprintf("repository %s rejected artifact %s: %s", e.Repository.ID, e.Artifact, e.Reason)
}

// TransferError wraps a connector, filesystem, or registration failure.
type TransferError struct {
	Artifact   Artifact
	Repository *Repository
	Cause      error
}

func (e *TransferError) Error() string {
	if e.Repository != nil {
		return fmt.Sprintf("transfer of %s from %s failed: %v", e.Artifact, e.Repository.ID, e.Cause)
	}
	return fmt.Sprintf("transfer of %s failed: %v", e.Artifact, e.Cause)
}

func (e *TransferError) Unwrap() error { return e.Cause }

// VersionError wraps a failure returned by the external version resolver.
type VersionError struct {
	Artifact Artifact
	Cause    error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("resolving version for %s failed: %v", e.Artifact, e.Cause)
}

func (e *VersionError) Unwrap() error { return e.Cause }

// ResolutionFailure is the aggregate error returned by ResolveArtifacts
// when one or more results remain unresolved; it carries every result so
// callers can inspect the successes alongside the failures.
type ResolutionFailure struct {
	Results []*ArtifactResult
}

func (e *ResolutionFailure) Error() string {
	failed := 0
	for _, r := range e.Results {
		if !r.Successful() {
			failed++
		}
	}
	return fmt.Sprintf("failed to resolve %d of %d requested artifacts", failed, len(e.Results))
}
