// internal/app/features/tasks/history.go
package tasks

import (
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cache holds the pre-warmed position and taxonomy lookups used by the
// evaluator and the reminder orchestrator. Everything is computed up front
// from the Config snapshot and the full position history, so evaluation of
// every (member, task) pair touches no storage.
type Cache struct {
	OnDate time.Time

	// ActivePositions lists the positions a member holds on OnDate.
	ActivePositions map[primitive.ObjectID][]models.Position

	// PositionHolders lists the members active in a position on OnDate.
	PositionHolders map[primitive.ObjectID][]primitive.ObjectID

	// MemberTaskGroups is the closure of task groups a member is
	// responsible for performing: active-position groups plus groups
	// attached to the member directly.
	MemberTaskGroups map[primitive.ObjectID]idSet

	// MemberTasks flattens MemberTaskGroups to task ids.
	MemberTasks map[primitive.ObjectID]idSet

	// EarliestStart is, per (member, task), the earliest assignment start
	// among the member's active positions that require the task. It anchors
	// the synthetic expiration of never-completed tasks.
	EarliestStart map[[2]primitive.ObjectID]time.Time
}

// WarmCache builds the cache for a set of members against the full
// assignment history as of onDate.
func WarmCache(cfg *Config, members []models.Member, history []models.UserPosition, onDate time.Time) *Cache {
	c := &Cache{
		OnDate:           onDate,
		ActivePositions:  make(map[primitive.ObjectID][]models.Position),
		PositionHolders:  make(map[primitive.ObjectID][]primitive.ObjectID),
		MemberTaskGroups: make(map[primitive.ObjectID]idSet),
		MemberTasks:      make(map[primitive.ObjectID]idSet),
		EarliestStart:    make(map[[2]primitive.ObjectID]time.Time),
	}

	// Assignment history per member, and earliest start per
	// (member, position) across all of history.
	byMember := make(map[primitive.ObjectID][]models.UserPosition)
	firstStart := make(map[[2]primitive.ObjectID]time.Time)
	for _, up := range history {
		byMember[up.MemberID] = append(byMember[up.MemberID], up)
		k := [2]primitive.ObjectID{up.MemberID, up.PositionID}
		if cur, ok := firstStart[k]; !ok || up.StartDate.Before(cur) {
			firstStart[k] = up.StartDate
		}
	}

	groupTasks := make(map[primitive.ObjectID]idSet)
	tasksOf := func(gid primitive.ObjectID) idSet {
		ts, ok := groupTasks[gid]
		if !ok {
			ts = cfg.GroupTasks(gid)
			groupTasks[gid] = ts
		}
		return ts
	}
	positionGroups := make(map[primitive.ObjectID]idSet)
	groupsOf := func(pid primitive.ObjectID) idSet {
		gs, ok := positionGroups[pid]
		if !ok {
			gs = cfg.PositionTaskGroups(pid)
			positionGroups[pid] = gs
		}
		return gs
	}

	for _, m := range members {
		memberGroups := idSet{}
		memberTasks := idSet{}

		seenPos := idSet{}
		for _, up := range byMember[m.ID] {
			if !up.ActiveOn(onDate) {
				continue
			}
			if _, dup := seenPos[up.PositionID]; dup {
				continue
			}
			seenPos[up.PositionID] = struct{}{}

			pos, ok := cfg.Positions[up.PositionID]
			if !ok {
				continue
			}
			c.ActivePositions[m.ID] = append(c.ActivePositions[m.ID], pos)
			c.PositionHolders[pos.ID] = append(c.PositionHolders[pos.ID], m.ID)

			for gid := range groupsOf(pos.ID) {
				memberGroups[gid] = struct{}{}
			}

			// Anchor tasks required by this position at the member's
			// earliest assignment to it.
			start := firstStart[[2]primitive.ObjectID{m.ID, pos.ID}]
			for tid := range cfg.PositionTasks(pos.ID) {
				k := [2]primitive.ObjectID{m.ID, tid}
				if cur, ok := c.EarliestStart[k]; !ok || start.Before(cur) {
					c.EarliestStart[k] = start
				}
			}
		}

		// Task groups attached to the member directly.
		for _, gid := range m.TaskGroupIDs {
			for id := range cfg.GroupClosure(gid) {
				memberGroups[id] = struct{}{}
			}
		}

		for gid := range memberGroups {
			for tid := range tasksOf(gid) {
				memberTasks[tid] = struct{}{}
			}
		}

		c.MemberTaskGroups[m.ID] = memberGroups
		c.MemberTasks[m.ID] = memberTasks
	}

	return c
}

// HoldsPosition reports whether the member holds the position on the cache
// date.
func (c *Cache) HoldsPosition(memberID, positionID primitive.ObjectID) bool {
	for _, p := range c.ActivePositions[memberID] {
		if p.ID == positionID {
			return true
		}
	}
	return false
}
