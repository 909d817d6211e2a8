// cmd/memberhub/meetingscmd.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubops/memberhub/internal/app/features/meetings"
	meetingstore "github.com/clubops/memberhub/internal/app/store/meetings"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	tagstore "github.com/clubops/memberhub/internal/app/store/tags"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
	"github.com/clubops/memberhub/internal/app/system/dateutil"
)

var meetingsCmd = &cobra.Command{
	Use:   "meetings",
	Short: "Meeting invites and status-report reminders",
}

func meetingService(rt *runtime) *meetings.Service {
	db := rt.Deps.MongoDatabase
	return &meetings.Service{
		Interest:  rt.Interest,
		Meetings:  meetingstore.New(db),
		Tags:      tagstore.New(db),
		Positions: positionstore.New(db),
		Members:   memberstore.New(db),
		Templates: templatestore.New(db),
		Sender:    rt.mailSender(),
		Log:       rt.Log,
	}
}

// fromDate parses the optional start-date argument, defaulting to today.
func fromDate(args []string) (time.Time, error) {
	if len(args) < 2 {
		return time.Now(), nil
	}
	return dateutil.ParseDate(args[1])
}

var updateInvitesCmd = &cobra.Command{
	Use:   "updateinvites <interest> [startdate]",
	Short: "Create invites and status-report records for upcoming meetings",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		from, err := fromDate(args)
		if err != nil {
			return err
		}
		rt, cleanup, err := setup(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		st, err := meetingService(rt).UpdateInvites(ctx, from)
		if err != nil {
			return err
		}
		fmt.Printf("Meetings processed: %d\n", st.Meetings)
		fmt.Printf("Invites created: %d\n", st.InvitesCreated)
		fmt.Printf("Status reports created: %d\n", st.ReportsCreated)
		if st.SendFailures > 0 {
			fmt.Printf("Send failures: %d (see log)\n", st.SendFailures)
		}
		return nil
	},
}

func runReportReminders(cmd *cobra.Command, args []string, minInterval time.Duration) error {
	ctx := cmd.Context()
	from, err := fromDate(args)
	if err != nil {
		return err
	}
	rt, cleanup, err := setup(ctx, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := meetingService(rt).SendReportReminders(ctx, from, minInterval)
	if err != nil {
		return err
	}
	fmt.Printf("Meetings processed: %d\n", st.Meetings)
	fmt.Printf("Reminders sent: %d\n", st.Reminded)
	fmt.Printf("Throttled: %d\n", st.Throttled)
	if st.SendFailures > 0 {
		fmt.Printf("Send failures: %d (see log)\n", st.SendFailures)
	}
	return nil
}

var nightlyReportsCmd = &cobra.Command{
	Use:   "nightlyreports <interest> [startdate]",
	Short: "Send status-report reminders, at most once a day per invitee",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportReminders(cmd, args, 20*time.Hour)
	},
}

var continuousReportsCmd = &cobra.Command{
	Use:   "continuousreports <interest> [startdate]",
	Short: "Send status-report reminders with a short re-send interval",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportReminders(cmd, args, time.Hour)
	},
}

func init() {
	meetingsCmd.AddCommand(updateInvitesCmd)
	meetingsCmd.AddCommand(nightlyReportsCmd)
	meetingsCmd.AddCommand(continuousReportsCmd)
}
