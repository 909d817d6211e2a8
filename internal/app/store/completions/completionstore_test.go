// internal/app/store/completions/completionstore_test.go
package completionstore_test

import (
	"errors"
	"testing"
	"time"

	completionstore "github.com/clubops/memberhub/internal/app/store/completions"
	filestore "github.com/clubops/memberhub/internal/app/store/files"
	"github.com/clubops/memberhub/internal/domain/models"
	"github.com/clubops/memberhub/internal/testutil"
)

func TestRecordAndLatest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	member := fixtures.CreateMember(ctx, interest.ID, "Lin", "Maya", "maya@example.com")
	task := fixtures.CreateTask(ctx, interest.ID, "Safety Training")

	notes := fixtures.CreateTaskField(ctx, interest.ID, "notes", models.InputTypeText)

	tc, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest,
		Task:     task,
		Fields:   []models.TaskField{notes},
		MemberID: member.ID,
		ByUserID: member.ID,
		Values:   map[string]string{"notes": "completed at the spring clinic"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tc.PositionID != nil {
		t.Errorf("per-member completion recorded a position")
	}

	got, err := store.Latest(ctx, task, member.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got == nil || got.ID != tc.ID {
		t.Fatalf("Latest did not return the recorded completion")
	}

	data, err := store.FieldData(ctx, tc.ID)
	if err != nil {
		t.Fatalf("FieldData: %v", err)
	}
	if len(data) != 1 || data[0].Value != "completed at the spring clinic" {
		t.Fatalf("FieldData = %+v", data)
	}
}

func TestRecordDateOverride(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	member := fixtures.CreateMember(ctx, interest.ID, "Reyes", "Sam", "sam@example.com")
	task := fixtures.CreateTask(ctx, interest.ID, "CPR Certification")

	certDate := fixtures.CreateTaskField(ctx, interest.ID, "certdate", models.InputTypeDate)
	certDate.OverrideCompletion = true

	tc, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest,
		Task:     task,
		Fields:   []models.TaskField{certDate},
		MemberID: member.ID,
		ByUserID: member.ID,
		Values:   map[string]string{"certdate": "2026-03-15"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !tc.Completion.Equal(want) {
		t.Errorf("Completion = %v, want %v", tc.Completion, want)
	}
}

func TestByPositionSharing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	holder := fixtures.CreateMember(ctx, interest.ID, "Ito", "Ken", "ken@example.com")
	coHolder := fixtures.CreateMember(ctx, interest.ID, "Okafor", "Ada", "ada@example.com")
	position := fixtures.CreatePosition(ctx, interest.ID, "Race Director")

	task := fixtures.CreateTaskFrom(ctx, models.Task{
		InterestID:   interest.ID,
		Name:         "File Race Permit",
		IsByPosition: true,
		PositionID:   &position.ID,
	})

	tc, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest,
		Task:     task,
		MemberID: holder.ID,
		ByUserID: holder.ID,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tc.PositionID == nil || *tc.PositionID != position.ID {
		t.Fatalf("by-position completion did not record the position")
	}

	// Any holder sees the same completion.
	got, err := store.Latest(ctx, task, coHolder.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got == nil || got.ID != tc.ID {
		t.Fatalf("co-holder did not see the shared completion")
	}
}

func TestStrictPositionCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	interest.StrictPositionCompletion = true
	member := fixtures.CreateMember(ctx, interest.ID, "Gray", "Jo", "jo@example.com")
	position := fixtures.CreatePosition(ctx, interest.ID, "Treasurer")

	task := fixtures.CreateTaskFrom(ctx, models.Task{
		InterestID:   interest.ID,
		Name:         "Annual Budget",
		IsByPosition: true,
		PositionID:   &position.ID,
	})

	tc, err := store.Record(ctx, completionstore.RecordInput{
		Interest:      interest,
		Task:          task,
		MemberID:      member.ID,
		ByUserID:      member.ID,
		HoldsPosition: false,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tc.PositionID != nil {
		t.Errorf("strict mode recorded a position for a non-holder")
	}
}

func TestUploadFieldBindsFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	files := filestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	member := fixtures.CreateMember(ctx, interest.ID, "Lin", "Maya", "maya@example.com")
	task := fixtures.CreateTask(ctx, interest.ID, "Signed Waiver")
	upload := fixtures.CreateTaskField(ctx, interest.ID, "waiver", models.InputTypeUpload)

	fileID, err := files.Create(ctx, interest.ID, "waiver.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Create file: %v", err)
	}

	tc, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest,
		Task:     task,
		Fields:   []models.TaskField{upload},
		MemberID: member.ID,
		ByUserID: member.ID,
		Values:   map[string]string{"waiver": fileID},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	bound, err := files.ByCompletion(ctx, tc.ID)
	if err != nil {
		t.Fatalf("ByCompletion: %v", err)
	}
	if len(bound) != 1 || bound[0].FileID != fileID {
		t.Fatalf("file was not bound to the completion: %+v", bound)
	}

	// An unknown handle fails the record.
	_, err = store.Record(ctx, completionstore.RecordInput{
		Interest: interest,
		Task:     task,
		Fields:   []models.TaskField{upload},
		MemberID: member.ID,
		ByUserID: member.ID,
		Values:   map[string]string{"waiver": "not-a-file"},
	})
	if !errors.Is(err, completionstore.ErrFileNotFound) {
		t.Errorf("unknown file handle: err = %v, want ErrFileNotFound", err)
	}
}

func TestWarmLatestKeepsNewest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := completionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	interest := fixtures.CreateInterest(ctx, "club")
	member := fixtures.CreateMember(ctx, interest.ID, "Lin", "Maya", "maya@example.com")
	task := fixtures.CreateTask(ctx, interest.ID, "Renew Insurance")

	first, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest, Task: task, MemberID: member.ID, ByUserID: member.ID,
	})
	if err != nil {
		t.Fatalf("Record first: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.Record(ctx, completionstore.RecordInput{
		Interest: interest, Task: task, MemberID: member.ID, ByUserID: member.ID,
	})
	if err != nil {
		t.Fatalf("Record second: %v", err)
	}
	if !second.UpdateTime.After(first.UpdateTime) {
		t.Fatalf("completions share an update time; cannot order")
	}

	set, err := store.WarmLatest(ctx, interest.ID)
	if err != nil {
		t.Fatalf("WarmLatest: %v", err)
	}
	got := set.Lookup(task, member.ID)
	if got == nil || got.ID != second.ID {
		t.Fatalf("Lookup returned completion %v, want the newest", got)
	}
}
