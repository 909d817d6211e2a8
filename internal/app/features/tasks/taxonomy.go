// internal/app/features/tasks/taxonomy.go
package tasks

import (
	"fmt"
	"sort"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type idSet = map[primitive.ObjectID]struct{}

// GroupClosure returns the reflexive-transitive closure of a task group
// over the child-of relation. The graph should be acyclic; a cycle is
// broken silently by the visited set rather than looping.
func (c *Config) GroupClosure(id primitive.ObjectID) idSet {
	seen := idSet{}
	stack := []primitive.ObjectID{id}
	for len(stack) > 0 {
		gid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[gid]; ok {
			continue
		}
		g, ok := c.Groups[gid]
		if !ok {
			continue
		}
		seen[gid] = struct{}{}
		stack = append(stack, g.TaskGroupIDs...)
	}
	return seen
}

// GroupTasks returns every task reachable from a group, including through
// child groups.
func (c *Config) GroupTasks(id primitive.ObjectID) idSet {
	out := idSet{}
	for gid := range c.GroupClosure(id) {
		for _, tid := range c.Groups[gid].TaskIDs {
			if _, ok := c.Tasks[tid]; ok {
				out[tid] = struct{}{}
			}
		}
	}
	return out
}

// PositionTaskGroups returns the closure of every task group attached to a
// position.
func (c *Config) PositionTaskGroups(positionID primitive.ObjectID) idSet {
	out := idSet{}
	p, ok := c.Positions[positionID]
	if !ok {
		return out
	}
	for _, gid := range p.TaskGroupIDs {
		for id := range c.GroupClosure(gid) {
			out[id] = struct{}{}
		}
	}
	return out
}

// PositionTasks returns every task holders of a position must perform.
func (c *Config) PositionTasks(positionID primitive.ObjectID) idSet {
	out := idSet{}
	for gid := range c.PositionTaskGroups(positionID) {
		for _, tid := range c.Groups[gid].TaskIDs {
			if _, ok := c.Tasks[tid]; ok {
				out[tid] = struct{}{}
			}
		}
	}
	return out
}

// directGroupsOf returns the groups whose direct task list contains the
// task.
func (c *Config) directGroupsOf(taskID primitive.ObjectID) []models.TaskGroup {
	var out []models.TaskGroup
	for _, g := range c.Groups {
		for _, tid := range g.TaskIDs {
			if tid == taskID {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// CheckPositionConfig verifies the configuration constraints on by-position
// tasks: one directly linked task group, no child groups under it, one
// referencing position, and that position matching the task's own. Each
// violation is reported as a line; none is fatal.
func (c *Config) CheckPositionConfig() []string {
	var problems []string

	for _, task := range c.Tasks {
		if !task.IsByPosition {
			continue
		}

		groups := c.directGroupsOf(task.ID)
		if len(groups) != 1 {
			names := make([]string, 0, len(groups))
			for _, g := range groups {
				names = append(names, g.Name)
			}
			sort.Strings(names)
			problems = append(problems, fmt.Sprintf(
				"task %q is by position and is linked to %d task groups %v", task.Name, len(groups), names))
			continue
		}
		group := groups[0]

		if len(c.GroupClosure(group.ID)) != 1 {
			problems = append(problems, fmt.Sprintf(
				"task %q is by position but task group %q references other task groups", task.Name, group.Name))
			continue
		}

		var holders []models.Position
		for _, p := range c.Positions {
			for _, gid := range p.TaskGroupIDs {
				if gid == group.ID {
					holders = append(holders, p)
					break
				}
			}
		}
		if len(holders) != 1 || task.PositionID == nil || holders[0].ID != *task.PositionID {
			names := make([]string, 0, len(holders))
			for _, p := range holders {
				names = append(names, p.Name)
			}
			sort.Strings(names)
			want := "(none)"
			if task.PositionID != nil {
				if p, ok := c.Positions[*task.PositionID]; ok {
					want = p.Name
				}
			}
			problems = append(problems, fmt.Sprintf(
				"task %q is by position %q but task group %q is referenced by positions %v", task.Name, want, group.Name, names))
		}
	}

	sort.Strings(problems)
	return problems
}
