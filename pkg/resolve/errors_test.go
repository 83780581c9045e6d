package resolve

import (
	"errors"
	"testing"
)

func TestTransferErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransferError{Artifact: Artifact{GroupID: "g", ArtifactID: "a"}, Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should see through TransferError to its cause")
	}
}

func TestVersionErrorUnwraps(t *testing.T) {
	cause := errors.New("no matching version")
	err := &VersionError{Artifact: Artifact{GroupID: "g", ArtifactID: "a"}, Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should see through VersionError to its cause")
	}
}

func TestResolutionFailureCountsOnlyUnsuccessful(t *testing.T) {
	ok := &ArtifactResult{Artifact: Artifact{File: "/cache/a.jar"}}
	bad := &ArtifactResult{Exceptions: []error{&NotFoundError{}}}
	err := &ResolutionFailure{Results: []*ArtifactResult{ok, bad}}

	want := "failed to resolve 1 of 2 requested artifacts"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
