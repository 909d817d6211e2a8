// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(name string, fn func(context.Context, *mongo.Database) error) {
		if err := fn(ctx, db); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}

	ensure("interests", ensureInterests)
	ensure("members", ensureMembers)
	ensure("memberdates", ensureMemberDates)
	ensure("memberships", ensureMemberships)
	ensure("positions", ensurePositions)
	ensure("userpositions", ensureUserPositions)
	ensure("taskgroups", ensureTaskGroups)
	ensure("tasks", ensureTasks)
	ensure("task_completions", ensureTaskCompletions)
	ensure("tags", ensureTags)
	ensure("email_templates", ensureEmailTemplates)
	ensure("files", ensureFiles)
	ensure("meetings", ensureMeetings)
	ensure("invites", ensureInvites)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func named(name string, unique bool, keys bson.D) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: keys, Options: opts}
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", name))

		_, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			continue
		}

		// IndexOptionsConflict: same keys exist under another name or with
		// different options. Drop by name and recreate.
		if strings.Contains(err.Error(), "IndexOptionsConflict") || strings.Contains(err.Error(), "IndexKeySpecsConflict") {
			if name != "" {
				if _, dropErr := coll.Indexes().DropOne(ctx, name); dropErr != nil {
					zap.L().Warn("drop conflicting index failed",
						zap.String("collection", coll.Name()),
						zap.String("name", name),
						zap.Error(dropErr))
				}
				if _, err = coll.Indexes().CreateOne(ctx, m); err == nil {
					continue
				}
			}
		}
		return fmt.Errorf("create index %s on %s: %w", name, coll.Name(), err)
	}
	return nil
}

func ensureInterests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("interests"), []mongo.IndexModel{
		named("uniq_name", true, bson.D{{Key: "name", Value: 1}}),
	})
}

func ensureMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("members"), []mongo.IndexModel{
		named("identity", false, bson.D{
			{Key: "interest_id", Value: 1},
			{Key: "family_name", Value: 1},
			{Key: "given_name", Value: 1},
			{Key: "gender", Value: 1},
			{Key: "dob", Value: 1},
		}),
		named("svc_member_id", false, bson.D{
			{Key: "interest_id", Value: 1},
			{Key: "svc_member_id", Value: 1},
		}),
	})
}

func ensureMemberDates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("memberdates"), []mongo.IndexModel{
		named("member", false, bson.D{{Key: "member_id", Value: 1}, {Key: "end_date", Value: 1}}),
	})
}

func ensureMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("memberships"), []mongo.IndexModel{
		named("svc_membership", false, bson.D{
			{Key: "member_id", Value: 1},
			{Key: "svc_membership_id", Value: 1},
		}),
		named("memberdates", false, bson.D{{Key: "memberdates_id", Value: 1}}),
	})
}

func ensurePositions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("positions"), []mongo.IndexModel{
		named("uniq_name", true, bson.D{{Key: "interest_id", Value: 1}, {Key: "name_ci", Value: 1}}),
	})
}

func ensureUserPositions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("userpositions"), []mongo.IndexModel{
		named("member", false, bson.D{{Key: "member_id", Value: 1}}),
		named("position", false, bson.D{{Key: "position_id", Value: 1}}),
	})
}

func ensureTaskGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("taskgroups"), []mongo.IndexModel{
		named("uniq_name", true, bson.D{{Key: "interest_id", Value: 1}, {Key: "name_ci", Value: 1}}),
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tasks"), []mongo.IndexModel{
		named("interest", false, bson.D{{Key: "interest_id", Value: 1}}),
	})
}

func ensureTaskCompletions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("task_completions"), []mongo.IndexModel{
		named("task_member", false, bson.D{
			{Key: "task_id", Value: 1},
			{Key: "member_id", Value: 1},
			{Key: "update_time", Value: -1},
		}),
		named("task_position", false, bson.D{
			{Key: "task_id", Value: 1},
			{Key: "position_id", Value: 1},
			{Key: "update_time", Value: -1},
		}),
	})
}

func ensureTags(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tags"), []mongo.IndexModel{
		named("uniq_name", true, bson.D{{Key: "interest_id", Value: 1}, {Key: "name_ci", Value: 1}}),
	})
}

func ensureEmailTemplates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("email_templates"), []mongo.IndexModel{
		named("uniq_template", true, bson.D{{Key: "interest_id", Value: 1}, {Key: "templatename", Value: 1}}),
	})
}

func ensureFiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("files"), []mongo.IndexModel{
		named("uniq_fileid", true, bson.D{{Key: "fileid", Value: 1}}),
	})
}

func ensureMeetings(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("meetings"), []mongo.IndexModel{
		named("interest_date", false, bson.D{{Key: "interest_id", Value: 1}, {Key: "date", Value: 1}}),
	})
}

func ensureInvites(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("invites"), []mongo.IndexModel{
		named("uniq_meeting_member", true, bson.D{{Key: "meeting_id", Value: 1}, {Key: "member_id", Value: 1}}),
	})
}
