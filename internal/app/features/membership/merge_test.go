// internal/app/features/membership/merge_test.go
package membership

import (
	"strings"
	"testing"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func annualRow(membershipID string, year int) Row {
	return Row{
		MemberID:       "12345",
		MembershipID:   membershipID,
		MembershipType: "Adult",
		FamilyName:     "Lin",
		GivenName:      "Maya",
		Gender:         "Female",
		DOB:            day(1985, time.March, 9),
		City:           "Boulder",
		State:          "CO",
		Email:          "maya@example.com",
		Primary:        true,
		JoinDate:       day(year, time.January, 1),
		ExpirationDate: day(year, time.December, 31),
		LastModified:   day(year, time.January, 2),
	}
}

func newState() memberState {
	return memberState{Member: models.Member{
		ID:         primitive.NewObjectID(),
		InterestID: primitive.NewObjectID(),
	}}
}

func applyRows(t *testing.T, st *memberState, rows []Row) []string {
	t.Helper()
	SortRows(rows)
	var warnings []string
	for _, row := range rows {
		warnings = append(warnings, mergeRow(st, row)...)
	}
	return warnings
}

func TestMergeContiguousYearsShareOneSpan(t *testing.T) {
	st := newState()
	warnings := applyRows(t, &st, []Row{
		annualRow("m-2024", 2024),
		annualRow("m-2023", 2023),
	})
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	if len(st.Dates) != 1 {
		t.Fatalf("got %d spans, want 1", len(st.Dates))
	}
	span := st.Dates[0]
	if !span.StartDate.Equal(day(2023, time.January, 1)) || !span.EndDate.Equal(day(2024, time.December, 31)) {
		t.Fatalf("span = %s..%s, want 2023-01-01..2024-12-31",
			span.StartDate.Format("2006-01-02"), span.EndDate.Format("2006-01-02"))
	}

	if len(st.Memberships) != 2 {
		t.Fatalf("got %d memberships, want 2", len(st.Memberships))
	}
	for _, m := range st.Memberships {
		if m.MemberDatesID != span.ID {
			t.Errorf("membership %s owned by %s, want span %s", m.SvcMembershipID, m.MemberDatesID.Hex(), span.ID.Hex())
		}
		if m.MemberID != st.Member.ID {
			t.Errorf("membership %s not bound to member", m.SvcMembershipID)
		}
	}

	if st.Member.SvcMemberID != "12345" {
		t.Errorf("SvcMemberID = %q, want 12345", st.Member.SvcMemberID)
	}
	if st.Member.Hometown != "Boulder, CO" {
		t.Errorf("Hometown = %q, want Boulder, CO", st.Member.Hometown)
	}
}

func TestMergeGapKeepsSpansApart(t *testing.T) {
	st := newState()
	applyRows(t, &st, []Row{
		annualRow("m-2021", 2021),
		annualRow("m-2024", 2024),
	})
	if len(st.Dates) != 2 {
		t.Fatalf("got %d spans, want 2", len(st.Dates))
	}
	if !st.Dates[0].EndDate.Equal(day(2021, time.December, 31)) {
		t.Errorf("first span ends %s, want 2021-12-31", st.Dates[0].EndDate.Format("2006-01-02"))
	}
	if !st.Dates[1].StartDate.Equal(day(2024, time.January, 1)) {
		t.Errorf("second span starts %s, want 2024-01-01", st.Dates[1].StartDate.Format("2006-01-02"))
	}
}

func TestMergeRepairsOverlap(t *testing.T) {
	first := annualRow("m-2023", 2023)
	second := annualRow("m-2024", 2024)
	// Second year sold before the first expired.
	second.JoinDate = day(2023, time.December, 1)

	st := newState()
	warnings := applyRows(t, &st, []Row{first, second})

	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly 1", warnings)
	}
	want := "overlap detected for Lin,Maya,1985-03-09: end=2024-12-31 was start=2023-12-01 now start=2024-01-01"
	if warnings[0] != want {
		t.Fatalf("warning = %q, want %q", warnings[0], want)
	}

	var repaired *models.Membership
	for i := range st.Memberships {
		if st.Memberships[i].SvcMembershipID == "m-2024" {
			repaired = &st.Memberships[i]
		}
	}
	if repaired == nil {
		t.Fatal("membership m-2024 missing")
	}
	if !repaired.StartDate.Equal(day(2024, time.January, 1)) {
		t.Errorf("start = %s, want 2024-01-01", repaired.StartDate.Format("2006-01-02"))
	}
	if len(st.Dates) != 1 {
		t.Fatalf("got %d spans, want 1 after repair", len(st.Dates))
	}
}

func TestMergeIdempotent(t *testing.T) {
	rows := []Row{
		annualRow("m-2022", 2022),
		annualRow("m-2023", 2023),
		annualRow("m-2024", 2024),
	}

	st := newState()
	applyRows(t, &st, rows)
	datesBefore := append([]models.MemberDates(nil), st.Dates...)
	mshipsBefore := append([]models.Membership(nil), st.Memberships...)

	applyRows(t, &st, rows)

	if len(st.Dates) != len(datesBefore) {
		t.Fatalf("spans changed from %d to %d on replay", len(datesBefore), len(st.Dates))
	}
	for i := range st.Dates {
		if st.Dates[i] != datesBefore[i] {
			t.Errorf("span %d changed on replay: %+v vs %+v", i, st.Dates[i], datesBefore[i])
		}
	}
	if len(st.Memberships) != len(mshipsBefore) {
		t.Fatalf("memberships changed from %d to %d on replay", len(mshipsBefore), len(st.Memberships))
	}
	for i := range st.Memberships {
		if st.Memberships[i] != mshipsBefore[i] {
			t.Errorf("membership %d changed on replay", i)
		}
	}
}

func TestMergeExtendedExpirationGrowsSpan(t *testing.T) {
	st := newState()
	applyRows(t, &st, []Row{annualRow("m-2024", 2024)})

	// Registry pushed the expiration out three months.
	extended := annualRow("m-2024", 2024)
	extended.ExpirationDate = day(2025, time.March, 31)
	applyRows(t, &st, []Row{extended})

	if len(st.Dates) != 1 {
		t.Fatalf("got %d spans, want 1", len(st.Dates))
	}
	if !st.Dates[0].EndDate.Equal(day(2025, time.March, 31)) {
		t.Errorf("span end = %s, want 2025-03-31", st.Dates[0].EndDate.Format("2006-01-02"))
	}
	if len(st.Memberships) != 1 {
		t.Fatalf("got %d memberships, want 1", len(st.Memberships))
	}
}

func TestDedupCollapsesConsecutiveDuplicates(t *testing.T) {
	rows := []Row{
		annualRow("m-2023", 2023),
		annualRow("m-2023", 2023),
		annualRow("m-2024", 2024),
	}
	rows[1].Email = "maya+new@example.com"
	SortRows(rows)
	out := Dedup(rows)
	if len(out) != 2 {
		t.Fatalf("got %d rows, want 2", len(out))
	}
	// Last occurrence wins.
	if out[0].Email != "maya+new@example.com" {
		t.Errorf("kept email %q, want the later duplicate", out[0].Email)
	}
}

func TestSortRowsGroupsByIdentity(t *testing.T) {
	a := annualRow("m-2024", 2024)
	b := annualRow("m-2023", 2023)
	other := annualRow("x-2023", 2023)
	other.FamilyName = "Abbott"
	other.MemberID = "67890"

	rows := []Row{a, other, b}
	SortRows(rows)
	if rows[0].FamilyName != "Abbott" {
		t.Errorf("rows[0] = %s, want Abbott", rows[0].FamilyName)
	}
	if rows[1].MembershipID != "m-2023" || rows[2].MembershipID != "m-2024" {
		t.Errorf("member rows not ordered by expiration: %s then %s", rows[1].MembershipID, rows[2].MembershipID)
	}
}

func TestMapGender(t *testing.T) {
	cases := []struct{ code, want string }{
		{"M", "Male"},
		{"F", "Female"},
		{"X", "Non-binary"},
		{"", "Non-binary"},
	}
	for _, tc := range cases {
		if got := MapGender(tc.code); got != tc.want {
			t.Errorf("MapGender(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestHometown(t *testing.T) {
	r := Row{City: "Boulder", State: "CO"}
	if got := r.Hometown(); got != "Boulder, CO" {
		t.Errorf("Hometown = %q", got)
	}
	if got := (Row{}).Hometown(); got != "" {
		t.Errorf("empty Hometown = %q, want empty", got)
	}
	if got := (Row{State: "CO"}).Hometown(); !strings.HasSuffix(got, "CO") {
		t.Errorf("state-only Hometown = %q", got)
	}
}
