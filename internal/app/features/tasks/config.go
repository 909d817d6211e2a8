// internal/app/features/tasks/config.go
package tasks

import (
	"context"
	"fmt"

	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	taskstore "github.com/clubops/memberhub/internal/app/store/tasks"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config is an immutable snapshot of one interest's task configuration,
// loaded once at command start. Configuration changes during a run are not
// observed.
type Config struct {
	Interest  models.Interest
	Tasks     map[primitive.ObjectID]models.Task
	Groups    map[primitive.ObjectID]models.TaskGroup
	Fields    map[primitive.ObjectID]models.TaskField
	Positions map[primitive.ObjectID]models.Position
}

// LoadConfig pulls the full task configuration for an interest.
func LoadConfig(ctx context.Context, interest models.Interest, taskSt *taskstore.Store, posSt *positionstore.Store) (*Config, error) {
	cfg := &Config{
		Interest:  interest,
		Tasks:     make(map[primitive.ObjectID]models.Task),
		Groups:    make(map[primitive.ObjectID]models.TaskGroup),
		Fields:    make(map[primitive.ObjectID]models.TaskField),
		Positions: make(map[primitive.ObjectID]models.Position),
	}

	tasks, err := taskSt.ListTasks(ctx, interest.ID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		cfg.Tasks[t.ID] = t
	}

	groups, err := taskSt.ListGroups(ctx, interest.ID)
	if err != nil {
		return nil, fmt.Errorf("load task groups: %w", err)
	}
	for _, g := range groups {
		cfg.Groups[g.ID] = g
	}

	fields, err := taskSt.ListFields(ctx, interest.ID)
	if err != nil {
		return nil, fmt.Errorf("load task fields: %w", err)
	}
	for _, f := range fields {
		cfg.Fields[f.ID] = f
	}

	positions, err := posSt.ListByInterest(ctx, interest.ID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	for _, p := range positions {
		cfg.Positions[p.ID] = p
	}

	return cfg, nil
}

// TaskFields resolves a task's ordered field list from the snapshot.
func (c *Config) TaskFields(t models.Task) []models.TaskField {
	out := make([]models.TaskField, 0, len(t.FieldIDs))
	for _, id := range t.FieldIDs {
		if f, ok := c.Fields[id]; ok {
			out = append(out, f)
		}
	}
	return out
}
