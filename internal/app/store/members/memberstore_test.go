// internal/app/store/members/memberstore_test.go
package memberstore_test

import (
	"errors"
	"testing"
	"time"

	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	"github.com/clubops/memberhub/internal/app/system/txn"
	"github.com/clubops/memberhub/internal/domain/models"
	"github.com/clubops/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemberIdentityLookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	dob := time.Date(1985, 3, 9, 0, 0, 0, 0, time.UTC)

	id, err := store.Insert(ctx, models.Member{
		ID:          primitive.NewObjectID(),
		InterestID:  interest.ID,
		FamilyName:  "Lin",
		GivenName:   "Maya",
		Gender:      "Female",
		DOB:         dob,
		Email:       "maya@example.com",
		SvcMemberID: "12345",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.FindIdentity(ctx, interest.ID, "Lin", "Maya", "Female", dob)
	if err != nil {
		t.Fatalf("FindIdentity: %v", err)
	}
	if got.ID != id {
		t.Errorf("FindIdentity returned %s, want %s", got.ID.Hex(), id.Hex())
	}

	got, err = store.FindBySvcMemberID(ctx, interest.ID, "12345")
	if err != nil {
		t.Fatalf("FindBySvcMemberID: %v", err)
	}
	if got.Email != "maya@example.com" {
		t.Errorf("Email = %q, want maya@example.com", got.Email)
	}

	if _, err := store.FindIdentity(ctx, interest.ID, "Lin", "Maya", "Male", dob); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("FindIdentity with wrong gender: err = %v, want ErrNotFound", err)
	}
	if _, err := store.FindBySvcMemberID(ctx, interest.ID, "99999"); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("FindBySvcMemberID unknown: err = %v, want ErrNotFound", err)
	}
}

func TestMemberVersionedUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	m := models.Member{
		ID:         primitive.NewObjectID(),
		InterestID: interest.ID,
		FamilyName: "Reyes",
		GivenName:  "Sam",
		Gender:     "Male",
		DOB:        time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
	id, err := store.Insert(ctx, m)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	loaded, err := store.ByID(ctx, id)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}

	loaded.Email = "sam@example.com"
	if err := store.Update(ctx, loaded); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := store.ByID(ctx, id)
	if err != nil {
		t.Fatalf("ByID after update: %v", err)
	}
	if after.Email != "sam@example.com" {
		t.Errorf("Email = %q after update", after.Email)
	}
	if after.Version != loaded.Version+1 {
		t.Errorf("Version = %d, want %d", after.Version, loaded.Version+1)
	}

	// Writing with the stale version must fail.
	loaded.Email = "stale@example.com"
	if err := store.Update(ctx, loaded); !errors.Is(err, txn.ErrVersionConflict) {
		t.Errorf("stale Update: err = %v, want ErrVersionConflict", err)
	}
}

func TestListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	active := fixtures.CreateMember(ctx, interest.ID, "Ito", "Ken", "ken@example.com")

	inactive := models.Member{
		ID:         primitive.NewObjectID(),
		InterestID: interest.ID,
		FamilyName: "Gone",
		GivenName:  "Al",
		Gender:     "Male",
		DOB:        time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := store.Insert(ctx, inactive); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.ListActive(ctx, interest.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("ListActive returned %d members, want just %s", len(got), active.GivenName)
	}
}

func TestDatesAndMemberships(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	member := fixtures.CreateMember(ctx, interest.ID, "Okafor", "Ada", "ada@example.com")

	span := models.MemberDates{
		ID:         primitive.NewObjectID(),
		InterestID: interest.ID,
		MemberID:   member.ID,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	spanID, err := store.InsertDates(ctx, span)
	if err != nil {
		t.Fatalf("InsertDates: %v", err)
	}

	mship := models.Membership{
		ID:              primitive.NewObjectID(),
		InterestID:      interest.ID,
		MemberID:        member.ID,
		MemberDatesID:   spanID,
		SvcMemberID:     "12345",
		SvcMembershipID: "m-2024",
		StartDate:       span.StartDate,
		EndDate:         span.EndDate,
		Primary:         true,
	}
	if _, err := store.InsertMembership(ctx, mship); err != nil {
		t.Fatalf("InsertMembership: %v", err)
	}

	spans, err := store.DatesByMember(ctx, member.ID)
	if err != nil {
		t.Fatalf("DatesByMember: %v", err)
	}
	if len(spans) != 1 || !spans[0].StartDate.Equal(span.StartDate) {
		t.Fatalf("DatesByMember returned %d spans", len(spans))
	}

	owned, err := store.MembershipsByDates(ctx, spanID)
	if err != nil {
		t.Fatalf("MembershipsByDates: %v", err)
	}
	if len(owned) != 1 || owned[0].SvcMembershipID != "m-2024" {
		t.Fatalf("MembershipsByDates returned %d rows", len(owned))
	}

	n, err := store.CountMembershipsByDates(ctx, spanID)
	if err != nil {
		t.Fatalf("CountMembershipsByDates: %v", err)
	}
	if n != 1 {
		t.Errorf("CountMembershipsByDates = %d, want 1", n)
	}

	// Retarget onto a second span, as the merge does when spans join.
	other := models.MemberDates{
		ID:         primitive.NewObjectID(),
		InterestID: interest.ID,
		MemberID:   member.ID,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	otherID, err := store.InsertDates(ctx, other)
	if err != nil {
		t.Fatalf("InsertDates other: %v", err)
	}
	moved, err := store.RetargetMemberships(ctx, spanID, otherID)
	if err != nil {
		t.Fatalf("RetargetMemberships: %v", err)
	}
	if moved != 1 {
		t.Errorf("RetargetMemberships moved %d, want 1", moved)
	}
	n, err = store.CountMembershipsByDates(ctx, otherID)
	if err != nil {
		t.Fatalf("CountMembershipsByDates after retarget: %v", err)
	}
	if n != 1 {
		t.Errorf("retargeted span owns %d memberships, want 1", n)
	}

	if err := store.DeleteDates(ctx, spanID); err != nil {
		t.Fatalf("DeleteDates: %v", err)
	}
	spans, err = store.DatesByMember(ctx, member.ID)
	if err != nil {
		t.Fatalf("DatesByMember after delete: %v", err)
	}
	if len(spans) != 1 || spans[0].ID != otherID {
		t.Fatalf("expected only the retarget span to remain, got %d", len(spans))
	}
}
