// cmd/memberhub/communitycmd.go
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubops/memberhub/internal/app/features/community"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	tagstore "github.com/clubops/memberhub/internal/app/store/tags"
	"github.com/clubops/memberhub/internal/app/system/lockfile"
)

var communityCmd = &cobra.Command{
	Use:   "community",
	Short: "Sync forum group membership from registry or tag sources",
}

// forumGroupFor builds the managed-group adapter with a per-(interest, group)
// advisory lock.
func forumGroupFor(rt *runtime, groupName string) (*community.ForumGroup, error) {
	client, err := rt.forumClient()
	if err != nil {
		return nil, err
	}
	return &community.ForumGroup{
		Client:    client,
		GroupName: groupName,
		Queries: community.ForumQueries{
			UserEmails:   rt.Cfg.ForumQueryUserEmails,
			Invites:      rt.Cfg.ForumQueryInvites,
			InviteGroups: rt.Cfg.ForumQueryInviteGroups,
		},
		Lock: lockfile.New(rt.Cfg.LockDir, rt.Interest.Name, groupName),
		Log:  rt.Log,
	}, nil
}

func runSync(cmd *cobra.Command, interestName string, source func(rt *runtime) (community.SourceAdapter, error), groupName string) error {
	if dbg, _ := cmd.Flags().GetBool("debugrequests"); dbg {
		debugMode = true
	}

	ctx := cmd.Context()
	rt, cleanup, err := setup(ctx, interestName)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := source(rt)
	if err != nil {
		return err
	}
	group, err := forumGroupFor(rt, groupName)
	if err != nil {
		return err
	}

	if err := community.NewEngine(src, group, rt.Log).ImportGroup(ctx); err != nil {
		return err
	}
	fmt.Printf("Group %q synced.\n", groupName)
	return nil
}

var syncRaceCmd = &cobra.Command{
	Use:   "syncrace <interest> <raceid> <groupname>",
	Short: "Sync a forum group from a race's registered participants",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raceID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid race id %q", args[1])
		}
		return runSync(cmd, args[0], func(rt *runtime) (community.SourceAdapter, error) {
			client, err := rt.registryClient()
			if err != nil {
				return nil, err
			}
			return &community.RegistryRaceSource{Client: client, RaceID: raceID, Log: rt.Log}, nil
		}, args[2])
	},
}

var syncClubCmd = &cobra.Command{
	Use:   "syncclub <interest> <groupname>",
	Short: "Sync a forum group from current club members",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args[0], func(rt *runtime) (community.SourceAdapter, error) {
			client, err := rt.registryClient()
			if err != nil {
				return nil, err
			}
			return &community.RegistryClubSource{Client: client, ClubID: rt.Cfg.RegistryClubID, Log: rt.Log}, nil
		}, args[1])
	},
}

var syncTagCmd = &cobra.Command{
	Use:   "synctag <interest> <tag> <groupname>",
	Short: "Sync a forum group from a tag's members and position holders",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args[0], func(rt *runtime) (community.SourceAdapter, error) {
			db := rt.Deps.MongoDatabase
			return &community.TagAudienceSource{
				InterestID: rt.Interest.ID,
				TagName:    args[1],
				OnDate:     time.Now(),
				Tags:       tagstore.New(db),
				Positions:  positionstore.New(db),
				Members:    memberstore.New(db),
				Log:        rt.Log,
			}, nil
		}, args[2])
	},
}

func init() {
	for _, c := range []*cobra.Command{syncRaceCmd, syncClubCmd, syncTagCmd} {
		c.Flags().Bool("debugrequests", false, "Log every outbound forum request")
		communityCmd.AddCommand(c)
	}
}
