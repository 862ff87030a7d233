package router

import (
	"testing"

	"govkernel/internal/api"
)

type fakeView struct {
	version api.Version
	labels  api.LabelSet
}

func (v fakeView) Version() api.Version  { return v.version }
func (v fakeView) Labels() api.LabelSet  { return v.labels }
func (v fakeView) IsReady() bool         { return true }
func (v fakeView) IsDying() bool         { return false }
func (v fakeView) ContainerActive() bool { return true }

func TestRouteMatchesAllRequestedLabels(t *testing.T) {
	r := New()
	stable := fakeView{version: "v1", labels: api.LabelSet{"track": "stable"}}
	canary := fakeView{version: "v2", labels: api.LabelSet{"track": "canary"}}

	picked := r.Route([]api.InstanceView{stable, canary}, api.InvocationContext{
		Labels: api.LabelSet{"track": "canary"},
	})
	if picked == nil || picked.Version() != "v2" {
		t.Fatalf("expected v2 to be picked, got %v", picked)
	}
}

func TestRouteReturnsNilWhenNoCandidateMatches(t *testing.T) {
	r := New()
	stable := fakeView{version: "v1", labels: api.LabelSet{"track": "stable"}}

	picked := r.Route([]api.InstanceView{stable}, api.InvocationContext{
		Labels: api.LabelSet{"track": "canary"},
	})
	if picked != nil {
		t.Fatalf("expected nil when no candidate matches, got %v", picked)
	}
}

func TestRouteWithNoRequestedLabelsPicksFirst(t *testing.T) {
	r := New()
	a := fakeView{version: "v1"}
	b := fakeView{version: "v2"}

	picked := r.Route([]api.InstanceView{a, b}, api.InvocationContext{})
	if picked == nil || picked.Version() != "v1" {
		t.Fatalf("expected the first candidate to win with no requested labels, got %v", picked)
	}
}

func TestRouteEmptyActiveListReturnsNil(t *testing.T) {
	r := New()
	picked := r.Route(nil, api.InvocationContext{})
	if picked != nil {
		t.Fatalf("expected nil for empty active list, got %v", picked)
	}
}
