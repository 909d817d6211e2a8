// internal/app/features/membership/reconcile.go
package membership

import (
	"context"
	"errors"
	"fmt"

	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
	"github.com/clubops/memberhub/internal/app/system/txn"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Reconciler folds externally sourced membership rows into the normalized
// member / span / membership model. All writes happen inside one unit of
// work; any error rolls the whole run back.
type Reconciler struct {
	Interest  models.Interest
	Members   *memberstore.Store
	Templates *templatestore.Store
	Log       *zap.Logger

	// Dedup collapses consecutive duplicate rows before processing.
	// Defaults on; the registry sometimes repeats rows.
	Dedup bool
}

func NewReconciler(interest models.Interest, members *memberstore.Store, templates *templatestore.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		Interest:  interest,
		Members:   members,
		Templates: templates,
		Log:       log,
		Dedup:     true,
	}
}

// Stats counts what a reconciliation run did.
type Stats struct {
	Rows           int
	MembersCreated int
	MembersUpdated int
	Warnings       int
}

// Run sorts, optionally dedups, and merges the rows. Per-member processing
// follows the input sort order.
func (r *Reconciler) Run(ctx context.Context, client *mongo.Client, rows []Row) (Stats, error) {
	SortRows(rows)
	if r.Dedup {
		before := len(rows)
		rows = Dedup(rows)
		if dropped := before - len(rows); dropped > 0 {
			r.Log.Debug("duplicate membership rows removed", zap.Int("dropped", dropped))
		}
	}

	var stats Stats
	stats.Rows = len(rows)

	err := txn.WithTransaction(ctx, client, func(ctx context.Context) error {
		for _, row := range rows {
			if err := r.mergeOne(ctx, row, &stats); err != nil {
				return fmt.Errorf("membership %s for %s, %s: %w",
					row.MembershipID, row.FamilyName, row.GivenName, err)
			}
		}
		return r.Templates.StampTableUpdate(ctx, r.Interest.ID, "member")
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *Reconciler) mergeOne(ctx context.Context, row Row, stats *Stats) error {
	st, created, err := r.loadState(ctx, row)
	if err != nil {
		return err
	}

	loaded := snapshot(st)
	warnings := mergeRow(&st, row)
	for _, w := range warnings {
		r.Log.Warn(w)
	}
	stats.Warnings += len(warnings)

	if err := r.persist(ctx, loaded, st); err != nil {
		return err
	}
	if created {
		stats.MembersCreated++
	} else {
		stats.MembersUpdated++
	}
	return nil
}

// loadState finds the member by natural identity or by registry id, with
// all spans and memberships, or builds a fresh member for the row.
func (r *Reconciler) loadState(ctx context.Context, row Row) (memberState, bool, error) {
	m, err := r.Members.FindIdentity(ctx, r.Interest.ID, row.FamilyName, row.GivenName, row.Gender, row.DOB)
	if errors.Is(err, memberstore.ErrNotFound) && row.MemberID != "" {
		m, err = r.Members.FindBySvcMemberID(ctx, r.Interest.ID, row.MemberID)
	}
	if errors.Is(err, memberstore.ErrNotFound) {
		member := models.Member{
			ID:          primitive.NewObjectID(),
			InterestID:  r.Interest.ID,
			FamilyName:  row.FamilyName,
			GivenName:   row.GivenName,
			MiddleName:  row.MiddleName,
			Gender:      row.Gender,
			DOB:         row.DOB,
			Email:       row.Email,
			Hometown:    row.Hometown(),
			SvcMemberID: row.MemberID,
		}
		return memberState{Member: member}, true, nil
	}
	if err != nil {
		return memberState{}, false, err
	}

	dates, err := r.Members.DatesByMember(ctx, m.ID)
	if err != nil {
		return memberState{}, false, err
	}
	mships, err := r.Members.MembershipsByMember(ctx, m.ID)
	if err != nil {
		return memberState{}, false, err
	}
	return memberState{Member: m, Dates: dates, Memberships: mships}, false, nil
}

func snapshot(st memberState) memberState {
	out := memberState{Member: st.Member}
	out.Dates = append([]models.MemberDates(nil), st.Dates...)
	out.Memberships = append([]models.Membership(nil), st.Memberships...)
	return out
}

// memberChanged reports whether the merge touched any field it owns. Task
// group attachments are managed elsewhere and excluded.
func memberChanged(a, b models.Member) bool {
	return a.FamilyName != b.FamilyName ||
		a.GivenName != b.GivenName ||
		a.MiddleName != b.MiddleName ||
		a.Gender != b.Gender ||
		!a.DOB.Equal(b.DOB) ||
		a.Email != b.Email ||
		a.Hometown != b.Hometown ||
		a.SvcMemberID != b.SvcMemberID ||
		a.Active != b.Active
}

// persist diffs the merged state against what was loaded and issues the
// minimal writes. Members and memberships use version-checked updates.
// The merge pre-assigns ids to new records and the stores issue the real
// ones on insert, so each returned id is mapped back over the references
// the merge wrote before dependents go out.
func (r *Reconciler) persist(ctx context.Context, loaded, merged memberState) error {
	newMember := loaded.Member.Version == 0

	if newMember {
		id, err := r.Members.Insert(ctx, merged.Member)
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
		merged.Member.ID = id
	} else if memberChanged(loaded.Member, merged.Member) {
		if err := r.Members.Update(ctx, merged.Member); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
	}

	prevDates := make(map[primitive.ObjectID]models.MemberDates, len(loaded.Dates))
	for _, d := range loaded.Dates {
		prevDates[d.ID] = d
	}
	spanIDs := make(map[primitive.ObjectID]primitive.ObjectID)
	seen := make(map[primitive.ObjectID]bool, len(merged.Dates))
	for _, d := range merged.Dates {
		seen[d.ID] = true
		prev, existed := prevDates[d.ID]
		switch {
		case !existed:
			id, err := r.Members.InsertDates(ctx, models.MemberDates{
				InterestID: d.InterestID,
				MemberID:   merged.Member.ID,
				StartDate:  d.StartDate,
				EndDate:    d.EndDate,
			})
			if err != nil {
				return fmt.Errorf("insert span: %w", err)
			}
			spanIDs[d.ID] = id
		case prev != d:
			if err := r.Members.UpdateDates(ctx, d); err != nil {
				return fmt.Errorf("update span: %w", err)
			}
		}
	}
	spanID := func(id primitive.ObjectID) primitive.ObjectID {
		if stored, ok := spanIDs[id]; ok {
			return stored
		}
		return id
	}

	// A span merged into a neighbor hands its whole membership group to
	// the survivor; move those in one bulk write before the span goes.
	retargeted := make(map[primitive.ObjectID]primitive.ObjectID)
	for id := range prevDates {
		if seen[id] {
			continue
		}
		if to, ok := survivorSpan(loaded, merged, id); ok {
			if _, err := r.Members.RetargetMemberships(ctx, id, spanID(to)); err != nil {
				return fmt.Errorf("retarget memberships: %w", err)
			}
			retargeted[id] = spanID(to)
		}
		if err := r.Members.DeleteDates(ctx, id); err != nil {
			return fmt.Errorf("delete span: %w", err)
		}
	}

	prevMships := make(map[primitive.ObjectID]models.Membership, len(loaded.Memberships))
	for _, m := range loaded.Memberships {
		prevMships[m.ID] = m
	}
	for _, m := range merged.Memberships {
		m.MemberID = merged.Member.ID
		m.MemberDatesID = spanID(m.MemberDatesID)
		prev, existed := prevMships[m.ID]
		if to, ok := retargeted[prev.MemberDatesID]; existed && ok {
			prev.MemberDatesID = to
		}
		switch {
		case !existed:
			if _, err := r.Members.InsertMembership(ctx, m); err != nil {
				return fmt.Errorf("insert membership: %w", err)
			}
		case prev != m:
			if err := r.Members.UpdateMembership(ctx, m); err != nil {
				return fmt.Errorf("update membership: %w", err)
			}
		}
	}
	return nil
}

// survivorSpan reports the span every membership of a merged-away span now
// sits on, when they all moved together. Memberships re-placed onto
// different spans fall back to individual updates.
func survivorSpan(loaded, merged memberState, datesID primitive.ObjectID) (primitive.ObjectID, bool) {
	var target primitive.ObjectID
	for _, lm := range loaded.Memberships {
		if lm.MemberDatesID != datesID {
			continue
		}
		cur := merged.membershipByID(lm.ID)
		if cur == nil {
			continue
		}
		if target.IsZero() {
			target = cur.MemberDatesID
		} else if cur.MemberDatesID != target {
			return primitive.NilObjectID, false
		}
	}
	return target, !target.IsZero()
}
