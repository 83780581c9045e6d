package resolve

import (
	"context"
	"testing"
)

type stubFilter struct {
	rejectID string
}

func (f stubFilter) Accept(_ context.Context, _ *Session, repo Repository, _ Artifact) FilterDecision {
	if repo.ID == f.rejectID {
		return FilterDecision{Accepted: false, Reason: "rejected in test"}
	}
	return FilterDecision{Accepted: true}
}

func TestFilterGateNilIsInactive(t *testing.T) {
	g := NewFilterGate(nil)
	if g.Active() {
		t.Fatalf("a FilterGate with no filter must report inactive")
	}
	repos := []Repository{{ID: "a"}, {ID: "b"}}
	result := &ArtifactResult{}
	got := g.Apply(context.Background(), &Session{}, Artifact{}, repos, result)
	if len(got) != 2 {
		t.Fatalf("an inactive gate must pass every repository through unfiltered")
	}
	if len(result.Exceptions) != 0 {
		t.Fatalf("an inactive gate must not record exceptions")
	}
}

func TestFilterGateAppliesDecisions(t *testing.T) {
	g := NewFilterGate(stubFilter{rejectID: "b"})
	if !g.Active() {
		t.Fatalf("a FilterGate with a filter must report active")
	}
	repos := []Repository{{ID: "a"}, {ID: "b"}}
	result := &ArtifactResult{}
	got := g.Apply(context.Background(), &Session{}, Artifact{}, repos, result)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only repository a to survive filtering, got %+v", got)
	}
	if len(result.Exceptions) != 1 {
		t.Fatalf("expected one FilteredOutError recorded, got %d", len(result.Exceptions))
	}
	if _, ok := result.Exceptions[0].(*FilteredOutError); !ok {
		t.Fatalf("expected a *FilteredOutError, got %T", result.Exceptions[0])
	}
}
