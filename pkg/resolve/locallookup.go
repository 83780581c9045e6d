package resolve

// Found implements the spec.md §4.4 "locally-installed" predicate.
//
// With a filter active, only the LRM's own tracking record counts: a
// physically present file with unknown origin is not trusted, because
// the filter must be authoritative over which repository it may have
// come from. Without a filter, a present-but-untracked file is still
// accepted when the version resolver pinned a local repository, or when
// it pinned nothing at all and the request named no candidate
// repositories (the version-range / sibling-install case).
func Found(filterActive bool, local LocalArtifactResult, ver VersionResult, requestRepos []Repository) bool {
	if filterActive {
		return local.Available
	}
	if local.Available {
		return true
	}
	if local.File == "" {
		return false
	}
	if ver.Repository != nil {
		return ver.Repository.Kind == RepositoryKindLocal
	}
	return len(requestRepos) == 0
}
