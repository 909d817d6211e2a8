// cmd/memberhub/membershipcmd.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubops/memberhub/internal/app/features/membership"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Membership ingestion and audience sync",
}

var membershipUpdateCmd = &cobra.Command{
	Use:   "update <interest>",
	Short: "Reconcile membership periods from the registry or a cached file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, cleanup, err := setup(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		file, _ := cmd.Flags().GetString("membershipfile")

		var rows []membership.Row
		if file != "" {
			rows, err = membership.ReadFile(file)
		} else {
			reg, regErr := rt.registryClient()
			if regErr != nil {
				return regErr
			}
			rows, err = membership.DownloadRows(ctx, reg, rt.Cfg.RegistryClubID, time.Now())
		}
		if err != nil {
			return err
		}

		db := rt.Deps.MongoDatabase
		rec := membership.NewReconciler(rt.Interest, memberstore.New(db), templatestore.New(db), rt.Log)
		stats, err := rec.Run(ctx, rt.Deps.MongoClient, rows)
		if err != nil {
			return err
		}

		fmt.Printf("Rows processed: %d\n", stats.Rows)
		fmt.Printf("Members created: %d\n", stats.MembersCreated)
		fmt.Printf("Members updated: %d\n", stats.MembersUpdated)
		if stats.Warnings > 0 {
			fmt.Printf("Warnings: %d (see log)\n", stats.Warnings)
		}
		return nil
	},
}

var membershipImportCmd = &cobra.Command{
	Use:   "import2mailchimp <interest>",
	Short: "Sync current and past members into the mailing-list audience",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, cleanup, err := setup(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		reg, err := rt.registryClient()
		if err != nil {
			return err
		}
		list, err := rt.mailingListClient()
		if err != nil {
			return err
		}

		imp := &membership.AudienceImporter{
			Registry: reg,
			ClubID:   rt.Cfg.RegistryClubID,
			List:     list,
			Cfg: membership.AudienceConfig{
				ListName:           rt.Cfg.MailListName,
				ShadowCategory:     rt.Cfg.MailListShadowCategory,
				CurrentMemberGroup: rt.Cfg.MailListCurrentGroup,
				PastMemberGroup:    rt.Cfg.MailListPastGroup,
			},
			Log: rt.Log,
		}
		st, err := imp.Run(ctx)
		if err != nil {
			return err
		}

		if show, _ := cmd.Flags().GetBool("stats"); show {
			fmt.Printf("Added to list: %d\n", st.AddedToList)
			fmt.Printf("Current members updated: %d\n", st.NewMember)
			fmt.Printf("Current members resubscribed: %d\n", st.NewMemberUnsubscribed)
			fmt.Printf("Past members restored: %d\n", st.PastMember)
			fmt.Printf("Non-members flagged: %d\n", st.NonMember)
			fmt.Printf("Skipped (unsubscribed): %d\n", st.MemberUnsubscribedSkipped)
			fmt.Printf("Skipped (cleaned): %d\n", st.MemberCleanedSkipped)
			fmt.Printf("Service errors: %d\n", st.ServiceErrors)
		}
		return nil
	},
}

func init() {
	membershipUpdateCmd.Flags().String("membershipfile", "", "Read membership rows from a CSV file instead of the registry")
	membershipImportCmd.Flags().Bool("stats", false, "Print import counters when done")

	membershipCmd.AddCommand(membershipUpdateCmd)
	membershipCmd.AddCommand(membershipImportCmd)
}
