// internal/app/features/community/sync_test.go
package community

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type staticSource map[string]SourceUser

func (s staticSource) Users(ctx context.Context) (map[string]SourceUser, error) {
	out := make(map[string]SourceUser, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

func src(emails ...string) staticSource {
	s := make(staticSource, len(emails))
	for _, e := range emails {
		s[e] = SourceUser{Email: e}
	}
	return s
}

// fakeGroup keys occupants by email and records every mutation.
type fakeGroup struct {
	occupants map[string]struct{}

	started, finished bool
	added, removed    []string
	checked           []string

	usersErr error
}

func newFakeGroup(emails ...string) *fakeGroup {
	g := &fakeGroup{occupants: make(map[string]struct{})}
	for _, e := range emails {
		g.occupants[e] = struct{}{}
	}
	return g
}

func (g *fakeGroup) StartImport(ctx context.Context) error { g.started = true; return nil }

func (g *fakeGroup) GroupKey(u SourceUser) string {
	if _, ok := g.occupants[u.Email]; ok {
		return u.Email
	}
	return ""
}

func (g *fakeGroup) GroupUsers(ctx context.Context) (map[string]struct{}, error) {
	if g.usersErr != nil {
		return nil, g.usersErr
	}
	out := make(map[string]struct{}, len(g.occupants))
	for k := range g.occupants {
		out[k] = struct{}{}
	}
	return out, nil
}

func (g *fakeGroup) CheckUpdate(ctx context.Context, u SourceUser, key string) error {
	g.checked = append(g.checked, key)
	return nil
}

func (g *fakeGroup) Add(ctx context.Context, u SourceUser, key string) error {
	g.added = append(g.added, u.Email)
	g.occupants[u.Email] = struct{}{}
	return nil
}

func (g *fakeGroup) Remove(ctx context.Context, key string) error {
	g.removed = append(g.removed, key)
	delete(g.occupants, key)
	return nil
}

func (g *fakeGroup) FinishImport(ctx context.Context) error { g.finished = true; return nil }

func TestImportGroupDiff(t *testing.T) {
	source := src("a@example.com", "b@example.com", "c@example.com")
	group := newFakeGroup("b@example.com", "stale@example.com")

	err := NewEngine(source, group, nil).ImportGroup(context.Background())
	if err != nil {
		t.Fatalf("ImportGroup() error = %v", err)
	}
	if !group.started || !group.finished {
		t.Error("lifecycle hooks not called")
	}

	sort.Strings(group.added)
	if len(group.added) != 2 || group.added[0] != "a@example.com" || group.added[1] != "c@example.com" {
		t.Errorf("added = %v", group.added)
	}
	if len(group.removed) != 1 || group.removed[0] != "stale@example.com" {
		t.Errorf("removed = %v", group.removed)
	}
	if len(group.checked) != 1 || group.checked[0] != "b@example.com" {
		t.Errorf("checked = %v", group.checked)
	}
}

func TestImportGroupIdempotent(t *testing.T) {
	source := src("a@example.com", "b@example.com")
	group := newFakeGroup("stale@example.com")
	engine := NewEngine(source, group, nil)

	if err := engine.ImportGroup(context.Background()); err != nil {
		t.Fatalf("first run error = %v", err)
	}

	group.added, group.removed, group.checked = nil, nil, nil
	if err := engine.ImportGroup(context.Background()); err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if len(group.added) != 0 || len(group.removed) != 0 {
		t.Errorf("second run mutated: added=%v removed=%v", group.added, group.removed)
	}
	if len(group.checked) != 2 {
		t.Errorf("second run checked %d users, want 2", len(group.checked))
	}
}

func TestImportGroupFinishRunsOnError(t *testing.T) {
	group := newFakeGroup()
	group.usersErr = errors.New("forum down")

	err := NewEngine(src("a@example.com"), group, nil).ImportGroup(context.Background())
	if err == nil || !errors.Is(err, group.usersErr) {
		t.Fatalf("err = %v, want forum down", err)
	}
	if !group.finished {
		t.Error("FinishImport skipped after failure")
	}
}

func TestImportGroupEmptySourceDrainsGroup(t *testing.T) {
	group := newFakeGroup("x@example.com", "y@example.com")
	if err := NewEngine(src(), group, nil).ImportGroup(context.Background()); err != nil {
		t.Fatalf("ImportGroup() error = %v", err)
	}
	if len(group.removed) != 2 {
		t.Errorf("removed = %v, want both occupants", group.removed)
	}
}
