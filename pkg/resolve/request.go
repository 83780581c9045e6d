package resolve

// Trace is an optional observability pointer chain attached to a request,
// letting callers correlate a resolution back to the build graph node
// that triggered it.
type Trace struct {
	Parent *Trace
	Tag    string
}

// ArtifactRequest is one artifact to resolve, together with the ordered
// list of candidate remote repositories the caller is willing to use for
// it.
type ArtifactRequest struct {
	Artifact     Artifact
	Repositories []Repository
	Context      string
	Trace        *Trace
}

// LocalArtifactResult is the outcome of consulting the local repository
// manager's cache-tracking metadata for an artifact.
type LocalArtifactResult struct {
	File       string
	Available  bool
	Repository Repository
}

// ArtifactResult is the 1:1, order-preserving outcome of resolving one
// ArtifactRequest.
type ArtifactResult struct {
	Request    ArtifactRequest
	Artifact   Artifact
	Repository *Repository
	Local      LocalArtifactResult
	Exceptions []error
}

// AddException accumulates a non-nil error onto the result without
// aborting resolution of the rest of the batch (spec.md §7's propagation
// policy).
func (r *ArtifactResult) AddException(err error) {
	if err != nil {
		r.Exceptions = append(r.Exceptions, err)
	}
}

// Successful reports whether this result carries a resolved file.
// Per spec.md §3, a result can be successful while still carrying
// non-fatal exceptions (e.g. a FilteredOutError for a rejected repo that
// a later repo in the same request satisfied instead) — success is keyed
// purely on the presence of a file, because every exception kind that
// would actually block resolution (NotFoundError, a terminal
// TransferError, VersionError) only ever accumulates on a result that
// never gets a file.
func (r *ArtifactResult) Successful() bool {
	return r.Artifact.File != ""
}

func resetResult(res *ArtifactResult) {
	res.Artifact = res.Request.Artifact
	res.Repository = nil
	res.Local = LocalArtifactResult{}
	res.Exceptions = nil
}
