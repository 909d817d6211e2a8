// internal/app/features/membership/merge.go
package membership

import (
	"fmt"
	"sort"
	"time"

	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberState is the in-memory working copy of one member's aggregate. The
// merge mutates it; persistence diffs it against what was loaded.
type memberState struct {
	Member      models.Member
	Dates       []models.MemberDates
	Memberships []models.Membership
}

func nextDay(d time.Time) time.Time {
	return d.AddDate(0, 0, 1)
}

// mergeRow folds one membership row into a member's aggregate, preserving
// the span invariants: spans stay disjoint with a gap of at least one day,
// and every membership ends up owned by the span containing its dates.
// Returned warnings describe repaired input (currently only overlapping
// memberships).
func mergeRow(st *memberState, row Row) []string {
	var warnings []string

	// Fold the row into the membership list, by external membership id.
	idx := -1
	for i := range st.Memberships {
		if st.Memberships[i].SvcMembershipID == row.MembershipID {
			idx = i
			break
		}
	}
	if idx < 0 {
		st.Memberships = append(st.Memberships, models.Membership{
			ID:         primitive.NewObjectID(),
			InterestID: st.Member.InterestID,
		})
		idx = len(st.Memberships) - 1
	}
	ms := &st.Memberships[idx]
	ms.SvcMemberID = row.MemberID
	ms.SvcMembershipID = row.MembershipID
	ms.MembershipType = row.MembershipType
	ms.Hometown = row.Hometown()
	ms.Email = row.Email
	ms.StartDate = row.JoinDate
	ms.EndDate = row.ExpirationDate
	ms.Primary = row.Primary
	ms.LastModified = row.LastModified

	sort.SliceStable(st.Memberships, func(i, j int) bool {
		return st.Memberships[i].EndDate.Before(st.Memberships[j].EndDate)
	})

	// Repair overlapping memberships: the later row's start advances past
	// the earlier row's end.
	for i := 1; i < len(st.Memberships); i++ {
		prev, cur := &st.Memberships[i-1], &st.Memberships[i]
		if !cur.StartDate.After(prev.EndDate) {
			was := cur.StartDate
			cur.StartDate = nextDay(prev.EndDate)
			warnings = append(warnings, fmt.Sprintf(
				"overlap detected for %s,%s,%s: end=%s was start=%s now start=%s",
				row.FamilyName, row.GivenName, dateutil.FormatDate(row.DOB),
				dateutil.FormatDate(cur.EndDate),
				dateutil.FormatDate(was), dateutil.FormatDate(cur.StartDate)))
		}
	}

	// Contiguous run each membership belongs to, by membership id.
	type dateRange struct{ start, end time.Time }
	ranges := make(map[primitive.ObjectID]*dateRange)
	var run []primitive.ObjectID
	var cur *dateRange
	for i := range st.Memberships {
		m := &st.Memberships[i]
		if cur != nil && m.StartDate.Equal(nextDay(st.membershipByID(run[len(run)-1]).EndDate)) {
			cur.end = m.EndDate
			run = append(run, m.ID)
		} else {
			for _, id := range run {
				ranges[id] = cur
			}
			cur = &dateRange{start: m.StartDate, end: m.EndDate}
			run = []primitive.ObjectID{m.ID}
		}
	}
	for _, id := range run {
		ranges[id] = cur
	}

	// Member identity and contact fields follow the latest row.
	st.Member.DOB = row.DOB
	st.Member.Gender = row.Gender
	st.Member.GivenName = row.GivenName
	st.Member.FamilyName = row.FamilyName
	st.Member.MiddleName = row.MiddleName

	sortDates := func() {
		sort.SliceStable(st.Dates, func(i, j int) bool {
			return st.Dates[i].EndDate.Before(st.Dates[j].EndDate)
		})
	}
	sortDates()

	// Place every membership on a span, adjusting span boundaries.
	for i := range st.Memberships {
		m := &st.Memberships[i]
		r := ranges[m.ID]
		placed := false

		for di := range st.Dates {
			d := &st.Dates[di]
			var prev *models.MemberDates
			if di > 0 {
				prev = &st.Dates[di-1]
			}

			// Needs a new span: wholly before this one, after the last
			// one, or in the gap between spans.
			before := nextDay(m.EndDate).Before(d.StartDate)
			afterLast := di == len(st.Dates)-1 && m.StartDate.After(nextDay(d.EndDate))
			between := prev != nil && m.StartDate.After(nextDay(prev.EndDate)) && m.EndDate.Before(d.StartDate)
			if before || afterLast || between {
				nd := models.MemberDates{
					ID:         primitive.NewObjectID(),
					InterestID: st.Member.InterestID,
					MemberID:   st.Member.ID,
					StartDate:  m.StartDate,
					EndDate:    m.EndDate,
				}
				st.Dates = append(st.Dates, nd)
				st.attach(m, nd.ID)
				placed = true
				break
			}

			// Extends this span from the beginning.
			if nextDay(m.EndDate).Equal(d.StartDate) {
				d.StartDate = m.StartDate
				st.attach(m, d.ID)
				placed = true
				break
			}

			// Extends this span from the end.
			if m.StartDate.Equal(nextDay(d.EndDate)) {
				d.EndDate = m.EndDate
				st.attach(m, d.ID)
				placed = true
				break
			}

			inSpan := func(t time.Time) bool {
				return !t.Before(d.StartDate) && !t.After(d.EndDate)
			}

			// Membership end date moved.
			if inSpan(m.StartDate) && !r.end.Equal(d.EndDate) {
				d.EndDate = r.end
				st.attach(m, d.ID)
				placed = true
				break
			}

			// Membership start date moved.
			if inSpan(m.EndDate) && !r.start.Equal(d.StartDate) {
				d.StartDate = r.start
				st.attach(m, d.ID)
				placed = true
				break
			}

			// Wholly contained.
			if inSpan(m.StartDate) && inSpan(m.EndDate) {
				st.attach(m, d.ID)
				placed = true
				break
			}
		}

		if !placed && len(st.Dates) == 0 {
			nd := models.MemberDates{
				ID:         primitive.NewObjectID(),
				InterestID: st.Member.InterestID,
				MemberID:   st.Member.ID,
				StartDate:  m.StartDate,
				EndDate:    m.EndDate,
			}
			st.Dates = append(st.Dates, nd)
			st.attach(m, nd.ID)
		}
		sortDates()
	}

	// Drop spans nothing points at.
	owned := make(map[primitive.ObjectID]int)
	for i := range st.Memberships {
		owned[st.Memberships[i].MemberDatesID]++
	}
	kept := st.Dates[:0]
	for _, d := range st.Dates {
		if owned[d.ID] > 0 {
			kept = append(kept, d)
		}
	}
	st.Dates = kept

	// Merge adjacent or overlapping spans, earlier span surviving.
	for i := 0; i+1 < len(st.Dates); {
		cur, next := &st.Dates[i], &st.Dates[i+1]
		if !nextDay(cur.EndDate).Before(next.StartDate) {
			for mi := range st.Memberships {
				if st.Memberships[mi].MemberDatesID == next.ID {
					st.Memberships[mi].MemberDatesID = cur.ID
				}
			}
			if next.EndDate.After(cur.EndDate) {
				cur.EndDate = next.EndDate
			}
			if next.StartDate.Before(cur.StartDate) {
				cur.StartDate = next.StartDate
			}
			st.Dates = append(st.Dates[:i+1], st.Dates[i+2:]...)
		} else {
			i++
		}
	}

	return warnings
}

func (st *memberState) membershipByID(id primitive.ObjectID) *models.Membership {
	for i := range st.Memberships {
		if st.Memberships[i].ID == id {
			return &st.Memberships[i]
		}
	}
	return nil
}

// attach binds a membership to a span and copies contact fields onto the
// member record; processing order makes the latest membership win.
func (st *memberState) attach(m *models.Membership, datesID primitive.ObjectID) {
	m.MemberID = st.Member.ID
	m.MemberDatesID = datesID
	st.Member.SvcMemberID = m.SvcMemberID
	st.Member.Hometown = m.Hometown
	st.Member.Email = m.Email
}
