package resolve

import "testing"

func TestFoundWithFilterActive(t *testing.T) {
	if Found(true, LocalArtifactResult{Available: false, File: "/cache/a.jar"}, VersionResult{}, nil) {
		t.Fatalf("a present-but-untracked file must not count as found while a filter is active")
	}
	if !Found(true, LocalArtifactResult{Available: true}, VersionResult{}, nil) {
		t.Fatalf("a tracked file must count as found while a filter is active")
	}
}

func TestFoundWithoutFilterNoFile(t *testing.T) {
	if Found(false, LocalArtifactResult{}, VersionResult{}, nil) {
		t.Fatalf("no file present should never count as found")
	}
}

func TestFoundWithoutFilterPinnedToLocalRepository(t *testing.T) {
	local := LocalArtifactResult{File: "/cache/a.jar"}
	ver := VersionResult{Repository: &Repository{Kind: RepositoryKindLocal}}
	if !Found(false, local, ver, []Repository{{Kind: RepositoryKindRemote}}) {
		t.Fatalf("a present file pinned to a local repository should count as found")
	}
}

func TestFoundWithoutFilterPinnedToRemoteRepository(t *testing.T) {
	local := LocalArtifactResult{File: "/cache/a.jar"}
	ver := VersionResult{Repository: &Repository{Kind: RepositoryKindRemote}}
	if Found(false, local, ver, []Repository{{Kind: RepositoryKindRemote}}) {
		t.Fatalf("a present file pinned to a remote repository must not short-circuit the download")
	}
}

func TestFoundWithoutFilterNoPinNoCandidates(t *testing.T) {
	local := LocalArtifactResult{File: "/cache/a.jar"}
	if !Found(false, local, VersionResult{}, nil) {
		t.Fatalf("a present file with no pin and no candidate repositories should count as found")
	}
}

func TestFoundWithoutFilterNoPinWithCandidates(t *testing.T) {
	local := LocalArtifactResult{File: "/cache/a.jar"}
	if Found(false, local, VersionResult{}, []Repository{{ID: "central"}}) {
		t.Fatalf("a present file with no pin but named candidate repositories should not be trusted")
	}
}
