package resolve

import "context"

// FilterGate applies an optional RemoteRepositoryFilter to the
// repositories a request may draw from (spec.md §4.2 step 2 and §4.7).
// Whether it is active at all changes the LocalLookup "found" decision
// downstream (spec.md §4.4): once filtering is active, presence of a
// cached file alone is no longer sufficient, because the filter must be
// authoritative over which repository an artifact may have come from.
type FilterGate struct {
	filter RemoteRepositoryFilter
}

// NewFilterGate constructs a FilterGate. A nil filter means no filtering
// is configured.
func NewFilterGate(filter RemoteRepositoryFilter) *FilterGate {
	return &FilterGate{filter: filter}
}

// Active reports whether a filter is configured.
func (g *FilterGate) Active() bool {
	return g.filter != nil
}

// Apply narrows repos to the accepted subset, recording a
// FilteredOutError on result for every rejection.
func (g *FilterGate) Apply(ctx context.Context, session *Session, a Artifact, repos []Repository, result *ArtifactResult) []Repository {
	if g.filter == nil {
		return repos
	}

	filtered := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		decision := g.filter.Accept(ctx, session, repo, a)
		if decision.Accepted {
			filtered = append(filtered, repo)
			continue
		}
		result.AddException(&FilteredOutError{Artifact: a, Repository: repo, Reason: decision.Reason})
	}
	return filtered
}
