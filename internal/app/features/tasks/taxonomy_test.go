// internal/app/features/tasks/taxonomy_test.go
package tasks

import (
	"strings"
	"testing"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func addGroup(cfg *Config, name string, taskIDs []primitive.ObjectID, childIDs []primitive.ObjectID) models.TaskGroup {
	g := models.TaskGroup{
		ID:           primitive.NewObjectID(),
		Name:         name,
		TaskIDs:      taskIDs,
		TaskGroupIDs: childIDs,
	}
	cfg.Groups[g.ID] = g
	return g
}

func addTask(cfg *Config, name string) models.Task {
	t := models.Task{ID: primitive.NewObjectID(), Name: name}
	cfg.Tasks[t.ID] = t
	return t
}

func TestGroupClosure(t *testing.T) {
	cfg := testConfig()

	leaf := addGroup(cfg, "leaf", nil, nil)
	mid := addGroup(cfg, "mid", nil, []primitive.ObjectID{leaf.ID})
	root := addGroup(cfg, "root", nil, []primitive.ObjectID{mid.ID, leaf.ID})

	got := cfg.GroupClosure(root.ID)
	if len(got) != 3 {
		t.Fatalf("closure size: got %d, want 3", len(got))
	}
	for _, id := range []primitive.ObjectID{root.ID, mid.ID, leaf.ID} {
		if _, ok := got[id]; !ok {
			t.Errorf("closure missing group %s", id.Hex())
		}
	}

	// Reflexive even for a leaf.
	if got := cfg.GroupClosure(leaf.ID); len(got) != 1 {
		t.Errorf("leaf closure size: got %d, want 1", len(got))
	}
}

func TestGroupClosureToleratesCycle(t *testing.T) {
	cfg := testConfig()

	// a -> b -> a, plus a dangling reference to a group that does not
	// exist.
	aID := primitive.NewObjectID()
	bID := primitive.NewObjectID()
	cfg.Groups[aID] = models.TaskGroup{ID: aID, Name: "a", TaskGroupIDs: []primitive.ObjectID{bID}}
	cfg.Groups[bID] = models.TaskGroup{ID: bID, Name: "b", TaskGroupIDs: []primitive.ObjectID{aID, primitive.NewObjectID()}}

	got := cfg.GroupClosure(aID)
	if len(got) != 2 {
		t.Fatalf("cyclic closure size: got %d, want 2", len(got))
	}
}

func TestGroupTasksTransitive(t *testing.T) {
	cfg := testConfig()

	t1 := addTask(cfg, "one")
	t2 := addTask(cfg, "two")
	child := addGroup(cfg, "child", []primitive.ObjectID{t2.ID}, nil)
	parent := addGroup(cfg, "parent", []primitive.ObjectID{t1.ID}, []primitive.ObjectID{child.ID})

	got := cfg.GroupTasks(parent.ID)
	if len(got) != 2 {
		t.Fatalf("task set size: got %d, want 2", len(got))
	}
	for _, id := range []primitive.ObjectID{t1.ID, t2.ID} {
		if _, ok := got[id]; !ok {
			t.Errorf("task set missing %s", id.Hex())
		}
	}
}

func TestPositionTasks(t *testing.T) {
	cfg := testConfig()

	t1 := addTask(cfg, "one")
	t2 := addTask(cfg, "two")
	g1 := addGroup(cfg, "g1", []primitive.ObjectID{t1.ID}, nil)
	g2 := addGroup(cfg, "g2", []primitive.ObjectID{t2.ID}, nil)

	pos := models.Position{
		ID:           primitive.NewObjectID(),
		Name:         "coordinator",
		TaskGroupIDs: []primitive.ObjectID{g1.ID, g2.ID},
	}
	cfg.Positions[pos.ID] = pos

	if got := cfg.PositionTaskGroups(pos.ID); len(got) != 2 {
		t.Errorf("position task groups: got %d, want 2", len(got))
	}
	if got := cfg.PositionTasks(pos.ID); len(got) != 2 {
		t.Errorf("position tasks: got %d, want 2", len(got))
	}
}

func TestCheckPositionConfig(t *testing.T) {
	cfg := testConfig()

	// Well configured by-position task.
	okTask := addTask(cfg, "well configured")
	okGroup := addGroup(cfg, "solo group", []primitive.ObjectID{okTask.ID}, nil)
	okPos := models.Position{
		ID:           primitive.NewObjectID(),
		Name:         "treasurer",
		TaskGroupIDs: []primitive.ObjectID{okGroup.ID},
	}
	cfg.Positions[okPos.ID] = okPos
	withPos := cfg.Tasks[okTask.ID]
	withPos.IsByPosition = true
	pid := okPos.ID
	withPos.PositionID = &pid
	cfg.Tasks[okTask.ID] = withPos

	if problems := cfg.CheckPositionConfig(); len(problems) != 0 {
		t.Fatalf("expected clean config, got %v", problems)
	}

	// A by-position task linked from two groups.
	badTask := addTask(cfg, "doubly grouped")
	addGroup(cfg, "first", []primitive.ObjectID{badTask.ID}, nil)
	addGroup(cfg, "second", []primitive.ObjectID{badTask.ID}, nil)
	bad := cfg.Tasks[badTask.ID]
	bad.IsByPosition = true
	bad.PositionID = &pid
	cfg.Tasks[badTask.ID] = bad

	problems := cfg.CheckPositionConfig()
	if len(problems) != 1 {
		t.Fatalf("got %d problems, want 1: %v", len(problems), problems)
	}
	if !strings.Contains(problems[0], "doubly grouped") {
		t.Errorf("problem should name the task: %s", problems[0])
	}
}
