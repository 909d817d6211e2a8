// cmd/memberhub/taskcmd.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubops/memberhub/internal/app/features/tasks"
	completionstore "github.com/clubops/memberhub/internal/app/store/completions"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	taskstore "github.com/clubops/memberhub/internal/app/store/tasks"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
	"github.com/clubops/memberhub/internal/domain/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Leadership task evaluation and reminder mail",
}

var sendRemindersCmd = &cobra.Command{
	Use:   "sendreminders <interest>",
	Short: "Email members their due tasks and managers their workers' overdue tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, cleanup, err := setup(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		db := rt.Deps.MongoDatabase
		now := time.Now()

		cfg, err := tasks.LoadConfig(ctx, rt.Interest, taskstore.New(db), positionstore.New(db))
		if err != nil {
			return err
		}

		members, err := memberstore.New(db).ListActive(ctx, rt.Interest.ID)
		if err != nil {
			return err
		}
		history, err := positionstore.New(db).AssignmentsByInterest(ctx, rt.Interest.ID)
		if err != nil {
			return err
		}
		latest, err := completionstore.New(db).WarmLatest(ctx, rt.Interest.ID)
		if err != nil {
			return err
		}

		tmpls := templatestore.New(db)
		memberTmpl, err := tmpls.ByName(ctx, rt.Interest.ID, models.TemplateMemberEmail)
		if err != nil {
			return fmt.Errorf("template %q: %w", models.TemplateMemberEmail, err)
		}
		leaderTmpl, err := tmpls.ByName(ctx, rt.Interest.ID, models.TemplateLeaderEmail)
		if err != nil {
			return fmt.Errorf("template %q: %w", models.TemplateLeaderEmail, err)
		}

		noMembers, _ := cmd.Flags().GetBool("nomembers")
		noManagers, _ := cmd.Flags().GetBool("nomanagers")

		cache := tasks.WarmCache(cfg, members, history, now)
		eval := tasks.NewEvaluator(cfg, cache, now)
		orch := tasks.NewOrchestrator(rt.mailSender(), rt.Log)

		sum, err := orch.SendReminders(tasks.ReminderInput{
			Config:          cfg,
			Cache:           cache,
			Members:         members,
			Latest:          latest,
			MemberTemplate:  memberTmpl,
			LeaderTemplate:  leaderTmpl,
			ChecklistURL:    rt.Cfg.ChecklistURL,
			DetailsURL:      rt.Cfg.DetailsURL,
			IncludeMembers:  !noMembers,
			IncludeManagers: !noManagers,
		}, eval)
		if err != nil {
			return err
		}

		fmt.Printf("Member emails sent: %d\n", sum.MemberEmails)
		fmt.Printf("Leader emails sent: %d\n", sum.LeaderEmails)
		if sum.SendFailures > 0 {
			fmt.Printf("Send failures: %d (see log)\n", sum.SendFailures)
		}
		return nil
	},
}

var checkPositionConfigCmd = &cobra.Command{
	Use:   "checkpositionconfig <interest>",
	Short: "Report by-position tasks whose task group is attached to more than one position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, cleanup, err := setup(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		db := rt.Deps.MongoDatabase
		cfg, err := tasks.LoadConfig(ctx, rt.Interest, taskstore.New(db), positionstore.New(db))
		if err != nil {
			return err
		}

		violations := cfg.CheckPositionConfig()
		if len(violations) == 0 {
			fmt.Println("No position configuration problems found.")
			return nil
		}
		for _, v := range violations {
			fmt.Println(v)
		}
		return nil
	},
}

func init() {
	sendRemindersCmd.Flags().Bool("nomembers", false, "Skip member reminder emails")
	sendRemindersCmd.Flags().Bool("nomanagers", false, "Skip manager summary emails")

	taskCmd.AddCommand(sendRemindersCmd)
	taskCmd.AddCommand(checkPositionConfigCmd)
}
