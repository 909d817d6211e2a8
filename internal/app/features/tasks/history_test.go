// internal/app/features/tasks/history_test.go
package tasks

import (
	"testing"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWarmCache(t *testing.T) {
	cfg := testConfig()

	task := addTask(cfg, "file report")
	group := addGroup(cfg, "reports", []primitive.ObjectID{task.ID}, nil)
	pos := models.Position{
		ID:           primitive.NewObjectID(),
		Name:         "secretary",
		TaskGroupIDs: []primitive.ObjectID{group.ID},
	}
	cfg.Positions[pos.ID] = pos

	holder := models.Member{ID: primitive.NewObjectID(), GivenName: "Ann", FamilyName: "Holder"}
	former := models.Member{ID: primitive.NewObjectID(), GivenName: "Bob", FamilyName: "Former"}
	direct := models.Member{
		ID:           primitive.NewObjectID(),
		GivenName:    "Cat",
		FamilyName:   "Direct",
		TaskGroupIDs: []primitive.ObjectID{group.ID},
	}

	finish := date("2024-01-31")
	history := []models.UserPosition{
		// Ann held the position earlier, left, and holds it again. The
		// earliest start is the anchor.
		{MemberID: holder.ID, PositionID: pos.ID, StartDate: date("2024-06-01")},
		{MemberID: holder.ID, PositionID: pos.ID, StartDate: date("2022-01-01"), FinishDate: &finish},
		// Bob's assignment is finished on the evaluation date.
		{MemberID: former.ID, PositionID: pos.ID, StartDate: date("2023-01-01"), FinishDate: &finish},
	}

	cache := WarmCache(cfg, []models.Member{holder, former, direct}, history, date("2024-08-01"))

	if got := cache.ActivePositions[holder.ID]; len(got) != 1 || got[0].ID != pos.ID {
		t.Errorf("holder active positions: got %v", got)
	}
	if got := cache.ActivePositions[former.ID]; len(got) != 0 {
		t.Errorf("former member should have no active positions, got %v", got)
	}
	if !cache.HoldsPosition(holder.ID, pos.ID) {
		t.Error("HoldsPosition should be true for the current holder")
	}
	if cache.HoldsPosition(former.ID, pos.ID) {
		t.Error("HoldsPosition should be false after the finish date")
	}

	if got := cache.PositionHolders[pos.ID]; len(got) != 1 || got[0] != holder.ID {
		t.Errorf("position holders: got %v", got)
	}

	if _, ok := cache.MemberTasks[holder.ID][task.ID]; !ok {
		t.Error("holder should get the position's task")
	}
	if _, ok := cache.MemberTasks[direct.ID][task.ID]; !ok {
		t.Error("direct task group attachment should yield the task")
	}
	if len(cache.MemberTasks[former.ID]) != 0 {
		t.Error("former holder should have no tasks")
	}

	earliest, ok := cache.EarliestStart[[2]primitive.ObjectID{holder.ID, task.ID}]
	if !ok {
		t.Fatal("holder should have an earliest start anchor")
	}
	if got := earliest; !got.Equal(date("2022-01-01")) {
		t.Errorf("earliest start: got %s, want 2022-01-01", got.Format("2006-01-02"))
	}
}

func TestWarmCacheChildGroupTasks(t *testing.T) {
	cfg := testConfig()

	childTask := addTask(cfg, "inner")
	child := addGroup(cfg, "child", []primitive.ObjectID{childTask.ID}, nil)
	parent := addGroup(cfg, "parent", nil, []primitive.ObjectID{child.ID})
	pos := models.Position{
		ID:           primitive.NewObjectID(),
		Name:         "lead",
		TaskGroupIDs: []primitive.ObjectID{parent.ID},
	}
	cfg.Positions[pos.ID] = pos

	m := models.Member{ID: primitive.NewObjectID(), GivenName: "Dee", FamilyName: "Lead"}
	history := []models.UserPosition{
		{MemberID: m.ID, PositionID: pos.ID, StartDate: date("2024-01-01")},
	}

	cache := WarmCache(cfg, []models.Member{m}, history, date("2024-08-01"))

	if _, ok := cache.MemberTasks[m.ID][childTask.ID]; !ok {
		t.Error("task in a child group should reach the position holder")
	}
	if _, ok := cache.MemberTaskGroups[m.ID][child.ID]; !ok {
		t.Error("member task groups should include the child group")
	}
}
