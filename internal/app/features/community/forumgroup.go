// internal/app/features/community/forumgroup.go
package community

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/clubops/memberhub/internal/app/system/lockfile"
	"github.com/clubops/memberhub/internal/app/system/normalize"
	"github.com/clubops/memberhub/internal/serviceapi/forum"
	"go.uber.org/zap"
)

// Occupant keys: registered forum users carry a "u:<id>" key, pending
// invites an "i:<canonical email>" key. A source user with neither gets an
// empty key and a fresh invite.
const (
	userKeyPrefix   = "u:"
	inviteKeyPrefix = "i:"
)

// ForumQueries are the saved data-explorer query ids the adapter depends
// on: user emails (user_id, email, normalized_email), open invites (id,
// email, deleted_at, invalidated_at, redemption_count), and invite group
// targets (invite_id, group_id).
type ForumQueries struct {
	UserEmails   int64
	Invites      int64
	InviteGroups int64
}

type invite struct {
	id       int64
	email    string
	groupIDs []int64
}

// ForumGroup syncs a forum group and its pending invites. Add and Remove
// queue registered users; the batched group calls go out in FinishImport.
// Invite changes apply immediately.
type ForumGroup struct {
	Client    *forum.Client
	GroupName string
	Queries   ForumQueries
	Lock      *lockfile.Lock
	Log       *zap.Logger

	groupID    int64
	users      map[int64]forum.AdminUser // by user id
	emailKey   map[string]string         // canonical email -> occupant key
	invites    map[string]*invite        // by canonical email
	addIDs     map[int64]struct{}
	removeIDs  map[int64]struct{}
	dropInvite map[string]struct{} // canonical emails losing this group
}

func (g *ForumGroup) log() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func (g *ForumGroup) StartImport(ctx context.Context) error {
	if g.Lock != nil {
		if err := g.Lock.Acquire(); err != nil {
			return err
		}
	}
	g.addIDs = make(map[int64]struct{})
	g.removeIDs = make(map[int64]struct{})
	g.dropInvite = make(map[string]struct{})

	users, err := g.Client.AdminUsers(ctx)
	if err != nil {
		return err
	}
	g.users = make(map[int64]forum.AdminUser, len(users))
	for _, u := range users {
		g.users[u.ID] = u
	}

	groups, err := g.Client.Groups(ctx)
	if err != nil {
		return err
	}
	g.groupID = 0
	for _, grp := range groups {
		if grp.Name == g.GroupName {
			g.groupID = grp.ID
			break
		}
	}
	if g.groupID == 0 {
		return fmt.Errorf("community group %q not found in forum", g.GroupName)
	}
	g.log().Debug("community group resolved",
		zap.String("group", g.GroupName), zap.Int64("group_id", g.groupID))

	return g.loadInvites(ctx)
}

// loadInvites keeps only open invites addressed to a specific email that
// target this group.
func (g *ForumGroup) loadInvites(ctx context.Context) error {
	res, err := g.Client.RunQuery(ctx, g.Queries.Invites)
	if err != nil {
		return err
	}
	byID := make(map[int64]*invite)
	for _, row := range res.Maps() {
		var (
			id, redemptions      int64
			email                string
			deleted, invalidated *string
		)
		rawInt(row["id"], &id)
		rawString(row["email"], &email)
		rawNullString(row["deleted_at"], &deleted)
		rawNullString(row["invalidated_at"], &invalidated)
		rawInt(row["redemption_count"], &redemptions)
		if email == "" || deleted != nil || invalidated != nil || redemptions != 0 {
			continue
		}
		byID[id] = &invite{id: id, email: email}
	}

	res, err = g.Client.RunQuery(ctx, g.Queries.InviteGroups)
	if err != nil {
		return err
	}
	for _, row := range res.Maps() {
		var inviteID, groupID int64
		rawInt(row["invite_id"], &inviteID)
		rawInt(row["group_id"], &groupID)
		if inv, ok := byID[inviteID]; ok {
			inv.groupIDs = append(inv.groupIDs, groupID)
		}
	}

	g.invites = make(map[string]*invite, len(byID))
	for _, inv := range byID {
		g.invites[normalize.CanonicalKey(inv.email)] = inv
	}
	return nil
}

func (g *ForumGroup) GroupKey(u SourceUser) string {
	canon := normalize.CanonicalKey(u.Email)
	if key, ok := g.emailKey[canon]; ok {
		return key
	}
	if _, ok := g.invites[canon]; ok {
		return inviteKeyPrefix + canon
	}
	return ""
}

func (g *ForumGroup) GroupUsers(ctx context.Context) (map[string]struct{}, error) {
	res, err := g.Client.RunQuery(ctx, g.Queries.UserEmails)
	if err != nil {
		return nil, err
	}
	g.emailKey = make(map[string]string)
	for _, row := range res.Maps() {
		var userID int64
		var email string
		rawInt(row["user_id"], &userID)
		if !rawString(row["normalized_email"], &email) {
			rawString(row["email"], &email)
		}
		if email != "" {
			g.emailKey[normalize.CanonicalKey(email)] = userKey(userID)
		}
	}

	members, err := g.Client.GroupMembers(ctx, g.GroupName)
	if err != nil {
		return nil, err
	}
	occupants := make(map[string]struct{}, len(members)+len(g.invites))
	for _, m := range members {
		if _, ok := g.users[m.ID]; !ok {
			g.log().Error("group member missing from forum user list",
				zap.Int64("user_id", m.ID), zap.String("group", g.GroupName))
			continue
		}
		occupants[userKey(m.ID)] = struct{}{}
	}
	for canon, inv := range g.invites {
		if containsID(inv.groupIDs, g.groupID) {
			occupants[inviteKeyPrefix+canon] = struct{}{}
		}
	}
	g.log().Debug("group occupants loaded",
		zap.String("group", g.GroupName), zap.Int("occupants", len(occupants)))
	return occupants, nil
}

// CheckUpdate is only meaningful for invite occupants, whose invite must
// keep targeting this group. Registered members need nothing.
func (g *ForumGroup) CheckUpdate(ctx context.Context, u SourceUser, key string) error {
	canon, ok := strings.CutPrefix(key, inviteKeyPrefix)
	if !ok {
		return nil
	}
	inv := g.invites[canon]
	if inv == nil || containsID(inv.groupIDs, g.groupID) {
		return nil
	}
	inv.groupIDs = append(inv.groupIDs, g.groupID)
	if err := g.Client.UpdateInvite(ctx, inv.id, inv.email, inv.groupIDs); err != nil {
		g.log().Error("updating invite groups failed",
			zap.String("email", inv.email), zap.Error(err))
	}
	return nil
}

func (g *ForumGroup) Add(ctx context.Context, u SourceUser, key string) error {
	if id, ok := parseUserKey(key); ok {
		g.addIDs[id] = struct{}{}
		return nil
	}

	canon := normalize.CanonicalKey(u.Email)
	if inv, ok := g.invites[canon]; ok {
		// Invite exists but does not target this group yet.
		if !containsID(inv.groupIDs, g.groupID) {
			inv.groupIDs = append(inv.groupIDs, g.groupID)
			if err := g.Client.UpdateInvite(ctx, inv.id, inv.email, inv.groupIDs); err != nil {
				g.log().Error("updating invite groups failed",
					zap.String("email", inv.email), zap.Error(err))
			}
		}
		return nil
	}

	g.log().Debug("inviting user to community group",
		zap.String("email", u.Email), zap.String("group", g.GroupName))
	if err := g.Client.CreateInvite(ctx, u.Email, []int64{g.groupID}); err != nil {
		g.log().Error("creating invite failed",
			zap.String("email", u.Email), zap.Error(err))
	}
	return nil
}

func (g *ForumGroup) Remove(ctx context.Context, key string) error {
	if id, ok := parseUserKey(key); ok {
		g.removeIDs[id] = struct{}{}
		return nil
	}
	if canon, ok := strings.CutPrefix(key, inviteKeyPrefix); ok {
		g.dropInvite[canon] = struct{}{}
	}
	return nil
}

func (g *ForumGroup) FinishImport(ctx context.Context) error {
	defer func() {
		if g.Lock != nil {
			g.Lock.Release()
		}
	}()

	if len(g.addIDs) > 0 {
		names := g.usernames(g.addIDs)
		g.log().Debug("adding users to group",
			zap.String("group", g.GroupName), zap.Strings("usernames", names))
		if err := g.Client.AddGroupMembers(ctx, g.groupID, names); err != nil {
			g.log().Error("adding users to group failed",
				zap.String("group", g.GroupName), zap.Error(err))
		}
	}
	if len(g.removeIDs) > 0 {
		names := g.usernames(g.removeIDs)
		g.log().Debug("removing users from group",
			zap.String("group", g.GroupName), zap.Strings("usernames", names))
		if err := g.Client.RemoveGroupMembers(ctx, g.groupID, names); err != nil {
			g.log().Error("removing users from group failed",
				zap.String("group", g.GroupName), zap.Error(err))
		}
	}

	for canon := range g.dropInvite {
		inv := g.invites[canon]
		if inv == nil {
			continue
		}
		remaining := inv.groupIDs[:0]
		for _, id := range inv.groupIDs {
			if id != g.groupID {
				remaining = append(remaining, id)
			}
		}
		inv.groupIDs = remaining

		if len(remaining) > 0 {
			if err := g.Client.UpdateInvite(ctx, inv.id, inv.email, remaining); err != nil {
				g.log().Error("removing group from invite failed",
					zap.String("email", inv.email), zap.Error(err))
			}
			continue
		}
		g.log().Debug("deleting invite with no remaining groups",
			zap.String("email", inv.email))
		if err := g.Client.DeleteInvite(ctx, inv.id); err != nil {
			g.log().Error("deleting invite failed",
				zap.String("email", inv.email), zap.Error(err))
		}
	}
	return nil
}

func (g *ForumGroup) usernames(ids map[int64]struct{}) []string {
	names := make([]string, 0, len(ids))
	for id := range ids {
		if u, ok := g.users[id]; ok {
			names = append(names, u.Username)
		}
	}
	sort.Strings(names)
	return names
}

func userKey(id int64) string {
	return userKeyPrefix + strconv.FormatInt(id, 10)
}

func parseUserKey(key string) (int64, bool) {
	s, ok := strings.CutPrefix(key, userKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Data-explorer rows carry loosely typed JSON cells.

func rawInt(raw json.RawMessage, out *int64) bool {
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func rawString(raw json.RawMessage, out *string) bool {
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func rawNullString(raw json.RawMessage, out **string) {
	if raw == nil || string(raw) == "null" {
		*out = nil
		return
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		*out = &s
	}
}
