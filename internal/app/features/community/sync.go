// internal/app/features/community/sync.go

// Package community keeps external groups in step with a source audience.
// One engine drives the diff; adapters supply the source and the target
// group.
package community

import (
	"context"

	"go.uber.org/zap"
)

// SourceUser is one person in the source audience. Email is required; the
// names feed invite or display use in adapters that need them.
type SourceUser struct {
	Email      string
	GivenName  string
	FamilyName string
}

// SourceAdapter produces the audience that should be in the group.
type SourceAdapter interface {
	// Users returns the audience keyed by raw (un-normalized) email.
	Users(ctx context.Context) (map[string]SourceUser, error)
}

// GroupAdapter wraps the target group. Keys are adapter-defined: whatever
// uniquely identifies a current group occupant (a user id, an invite
// email).
type GroupAdapter interface {
	// StartImport acquires any locks and loads adapter state. A non-nil
	// error aborts the run before any reads.
	StartImport(ctx context.Context) error

	// GroupKey maps a source user to its occupant key, or "" when the
	// user has no presence in the group system yet.
	GroupKey(u SourceUser) string

	// GroupUsers returns current occupants keyed as GroupKey would key
	// them.
	GroupUsers(ctx context.Context) (map[string]struct{}, error)

	// CheckUpdate reconciles a user present in both source and group.
	CheckUpdate(ctx context.Context, u SourceUser, key string) error

	// Add queues a source user missing from the group. key is "" when
	// the user is unknown to the group system.
	Add(ctx context.Context, u SourceUser, key string) error

	// Remove queues a group occupant absent from the source.
	Remove(ctx context.Context, key string) error

	// FinishImport flushes queued changes and releases locks. It runs
	// even when the diff loop fails part way.
	FinishImport(ctx context.Context) error
}

// Engine diffs a source audience against a group.
type Engine struct {
	Source SourceAdapter
	Group  GroupAdapter
	Log    *zap.Logger
}

func NewEngine(source SourceAdapter, group GroupAdapter, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Source: source, Group: group, Log: log}
}

// ImportGroup performs one sync run: users in the source but not the group
// are added, occupants not in the source are removed, and users in both
// are checked for updates.
func (e *Engine) ImportGroup(ctx context.Context) error {
	if err := e.Group.StartImport(ctx); err != nil {
		return err
	}
	err := e.importLocked(ctx)
	if ferr := e.Group.FinishImport(ctx); err == nil {
		err = ferr
	}
	return err
}

func (e *Engine) importLocked(ctx context.Context) error {
	sourceUsers, err := e.Source.Users(ctx)
	if err != nil {
		return err
	}
	groupUsers, err := e.Group.GroupUsers(ctx)
	if err != nil {
		return err
	}
	e.Log.Debug("starting group sync",
		zap.Int("source_users", len(sourceUsers)),
		zap.Int("group_users", len(groupUsers)))

	for _, u := range sourceUsers {
		key := e.Group.GroupKey(u)
		if _, ok := groupUsers[key]; ok && key != "" {
			delete(groupUsers, key)
			if err := e.Group.CheckUpdate(ctx, u, key); err != nil {
				return err
			}
			continue
		}
		if err := e.Group.Add(ctx, u, key); err != nil {
			return err
		}
	}

	// Whatever keys remain have no source user behind them.
	for key := range groupUsers {
		if err := e.Group.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
