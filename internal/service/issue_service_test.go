package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issue-service/internal/model"
)

type issueFixture struct {
	tx         *fakeTx
	issues     *fakeIssueStore
	updates    *fakeUpdateStore
	remarks    *fakeRemarkStore
	history    *fakeHistoryStore
	staff      *fakeStaffStore
	users      *fakeUserStore
	outbox     *fakeOutbox
	dispatcher *fakeDispatcher
	storage    *fakeStorage
	svc        *IssueService
}

func newIssueFixture() *issueFixture {
	f := &issueFixture{
		tx:         &fakeTx{},
		issues:     newFakeIssueStore(),
		updates:    newFakeUpdateStore(),
		remarks:    newFakeRemarkStore(),
		history:    &fakeHistoryStore{},
		staff:      newFakeStaffStore(),
		users:      newFakeUserStore(),
		outbox:     &fakeOutbox{},
		dispatcher: &fakeDispatcher{},
		storage:    &fakeStorage{},
	}
	f.tx.outbox = f.outbox
	log := zerolog.Nop()
	remarkSvc := NewRemarkService(f.tx, f.issues, f.remarks, f.history, log)
	f.svc = NewIssueService(IssueServiceDeps{
		Tx:         f.tx,
		Issues:     f.issues,
		Updates:    f.updates,
		Remarks:    f.remarks,
		History:    f.history,
		Staff:      f.staff,
		Outbox:     f.outbox,
		Dispatcher: f.dispatcher,
		Storage:    f.storage,
		RemarkSvc:  remarkSvc,
		Reporters:  NewUserService(f.users, &fakeNotifier{}, "@au.edu", log),
	}, log)
	return f
}

func coordinateFields() IssueFields {
	return IssueFields{
		Description: "Broken light in hall B",
		Latitude:    float(13.6123),
		Longitude:   float(100.8372),
		Category:    "electrical",
	}
}

func TestCreateIssue(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	issue, err := f.svc.Create(ctx, CreateIssueInput{
		IssueFields:   coordinateFields(),
		ReporterEmail: "Jane.Doe@au.edu",
		Photos:        []MediaFile{photo("light.jpg")},
	})
	require.NoError(t, err)

	stored := f.issues.issues[issue.ID]
	assert.Equal(t, model.IssueStatusPending, stored.Status)
	assert.False(t, stored.Assigned)
	assert.Nil(t, stored.AssignedToID)
	assert.Len(t, stored.PhotoURLs, 1)
	assert.Empty(t, stored.VideoURLs)
	assert.Nil(t, stored.CustomLocation)

	require.NotNil(t, stored.ReportedByID)
	reporter := f.users.users["jane.doe@au.edu"]
	assert.Equal(t, reporter.ID, *stored.ReportedByID)
	assert.Equal(t, "jane.doe", reporter.Username)

	remark := f.remarks.remarks[issue.ID]
	assert.Equal(t, model.RemarkTypeNew, remark.RemarkType)
	assert.False(t, remark.IsViewed)
}

func TestCreateIssueReportsEveryViolation(t *testing.T) {
	f := newIssueFixture()

	_, err := f.svc.Create(context.Background(), CreateIssueInput{
		IssueFields: IssueFields{
			UsingCustomLocation: true,
			Latitude:            float(10),
			Category:            "custom",
		},
		Videos: []MediaFile{video("huge.mp4", MaxVideoSize+1)},
	})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.ElementsMatch(t, []string{
		"description is required",
		"custom location is required when using a custom location",
		"latitude and longitude must be empty when using a custom location",
		"custom category is required when category is custom",
		`video "huge.mp4" exceeds the 100 MB size limit`,
	}, validationErr.Violations)

	assert.Empty(t, f.storage.uploaded)
	assert.Empty(t, f.issues.issues)
}

func TestCreateIssueRequiresMedia(t *testing.T) {
	f := newIssueFixture()

	_, err := f.svc.Create(context.Background(), CreateIssueInput{IssueFields: coordinateFields()})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "at least one photo or video is required")
}

func TestCreateIssueDiscardsMediaWhenUploadFails(t *testing.T) {
	f := newIssueFixture()
	f.storage.failOn = "second.jpg"

	_, err := f.svc.Create(context.Background(), CreateIssueInput{
		IssueFields: coordinateFields(),
		Photos:      []MediaFile{photo("first.jpg"), photo("second.jpg")},
	})
	require.ErrorIs(t, err, ErrUpload)

	assert.Equal(t, f.storage.uploaded, f.storage.deleted)
	assert.Empty(t, f.issues.issues)
}

func TestCreateIssueDiscardsMediaWhenSaveFails(t *testing.T) {
	f := newIssueFixture()
	f.issues.createErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), CreateIssueInput{
		IssueFields: coordinateFields(),
		Photos:      []MediaFile{photo("a.jpg")},
		Videos:      []MediaFile{video("b.mp4", 10)},
	})
	require.Error(t, err)

	assert.Len(t, f.storage.deleted, 2)
	assert.Empty(t, f.remarks.remarks)
}

func TestCreateIssueWithCustomLocationAndCategory(t *testing.T) {
	f := newIssueFixture()

	issue, err := f.svc.Create(context.Background(), CreateIssueInput{
		IssueFields: IssueFields{
			Description:         "Smell near the pond",
			UsingCustomLocation: true,
			CustomLocation:      "Behind the library",
			Category:            "Custom",
			CustomCategory:      "Odour",
		},
		Videos: []MediaFile{video("pond.mp4", 1024)},
	})
	require.NoError(t, err)

	assert.Equal(t, model.CategoryCustom, issue.Category)
	require.NotNil(t, issue.CustomCategory)
	assert.Equal(t, "Odour", *issue.CustomCategory)
	assert.Nil(t, issue.Latitude)
	assert.Nil(t, issue.ReportedByID)
}

func TestDeleteIssueCascades(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	issue := f.issues.put(model.Issue{
		PhotoURLs: []string{"https://media.test/p1.jpg"},
		VideoURLs: []string{"https://media.test/v1.mp4"},
	})
	other := f.issues.put(model.Issue{})
	f.updates.updates[uuid.New()] = model.Update{IssueID: issue.ID}
	f.updates.updates[uuid.New()] = model.Update{IssueID: other.ID}
	f.remarks.remarks[issue.ID] = model.IssueRemark{IssueID: issue.ID, RemarkType: model.RemarkTypeNew}
	f.history.entries = append(f.history.entries, model.IssueRemarkHistory{IssueID: issue.ID})

	require.NoError(t, f.svc.Delete(ctx, issue.ID))

	assert.NotContains(t, f.issues.issues, issue.ID)
	assert.Contains(t, f.issues.issues, other.ID)
	assert.Len(t, f.updates.updates, 1)
	assert.Empty(t, f.remarks.remarks)
	assert.Empty(t, f.history.entries)

	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, f.outbox.events, f.dispatcher.dispatched)
	assert.Equal(t, model.OutboxMediaDelete, f.outbox.events[0].Kind)
	assert.Equal(t, "https://media.test/p1.jpg", f.outbox.events[0].PayloadString("url"))
}

func TestDeleteIssueContinuesPastFailedStep(t *testing.T) {
	f := newIssueFixture()
	f.updates.deleteErr = errors.New("timeout")
	issue := f.issues.put(model.Issue{})
	f.remarks.remarks[issue.ID] = model.IssueRemark{IssueID: issue.ID}

	require.NoError(t, f.svc.Delete(context.Background(), issue.ID))

	assert.Empty(t, f.issues.issues)
	assert.Empty(t, f.remarks.remarks)
}

func TestDeleteIssueRowFailureKeepsMedia(t *testing.T) {
	f := newIssueFixture()
	f.issues.deleteErr = errors.New("violates foreign key constraint")
	issue := f.issues.put(model.Issue{PhotoURLs: []string{"https://media.test/p1.jpg"}})

	err := f.svc.Delete(context.Background(), issue.ID)
	require.Error(t, err)

	assert.Contains(t, f.issues.issues, issue.ID)
	assert.Empty(t, f.outbox.events)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestDeleteIssueOutboxFailureSkipsDispatch(t *testing.T) {
	f := newIssueFixture()
	f.outbox.err = errors.New("connection reset")
	issue := f.issues.put(model.Issue{PhotoURLs: []string{"https://media.test/p1.jpg"}})

	err := f.svc.Delete(context.Background(), issue.ID)
	require.Error(t, err)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestDeleteIssueNotFound(t *testing.T) {
	f := newIssueFixture()

	err := f.svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignIssue(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()
	issue := f.issues.put(model.Issue{})
	staff := model.Staff{ID: uuid.New(), StaffID: "OM01"}
	f.staff.staff[staff.ID] = staff

	assigned, err := f.svc.Assign(ctx, issue.ID, staff.ID, "high")
	require.NoError(t, err)
	assert.True(t, assigned.Assigned)
	require.NotNil(t, assigned.Priority)
	assert.Equal(t, "HIGH", *assigned.Priority)

	stored := f.issues.issues[issue.ID]
	assert.True(t, stored.Assigned)
	assert.Equal(t, staff.ID, *stored.AssignedToID)

	_, err = f.svc.Assign(ctx, issue.ID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAssigned(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()
	mine, theirs := uuid.New(), uuid.New()
	f.issues.put(model.Issue{Assigned: true, AssignedToID: &mine})
	f.issues.put(model.Issue{Assigned: true, AssignedToID: &theirs})
	f.issues.put(model.Issue{})

	page, err := f.svc.ListAssigned(ctx, model.Principal{SubjectID: mine, Role: model.RoleStaff}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, DefaultPageSize, page.Size)

	page, err = f.svc.ListAssigned(ctx, model.Principal{SubjectID: uuid.New(), Role: model.RoleAdmin}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = f.svc.ListAssigned(ctx, model.Principal{Role: model.RoleUser}, 0, 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	unassigned, err := f.svc.ListUnassigned(ctx, 0, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unassigned.Total)
	assert.Equal(t, MaxPageSize, unassigned.Size)
}

func TestListByStatus(t *testing.T) {
	f := newIssueFixture()
	f.issues.put(model.Issue{Status: model.IssueStatusCompleted})
	f.issues.put(model.Issue{Status: model.IssueStatusPending})

	page, err := f.svc.List(context.Background(), IssueQuery{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.IssueStatusCompleted, page.Items[0].Status)
}

func TestNearby(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()
	far := f.issues.put(model.Issue{Latitude: float(13.62), Longitude: float(100.84)})
	near := f.issues.put(model.Issue{Latitude: float(13.6124), Longitude: float(100.8373)})
	f.issues.put(model.Issue{Latitude: float(14.5), Longitude: float(101.5)})
	f.issues.put(model.Issue{UsingCustomLocation: true})

	results, err := f.svc.Nearby(ctx, float(13.6123), float(100.8372), float(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, near.ID, results[0].ID)
	assert.Equal(t, far.ID, results[1].ID)
	assert.Less(t, results[0].DistanceMeters, results[1].DistanceMeters)
}

func TestNearbyValidation(t *testing.T) {
	f := newIssueFixture()

	_, err := f.svc.Nearby(context.Background(), float(91), nil, float(0))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{
		"latitude must be between -90 and 90",
		"longitude is required",
		"radiusKm must be positive",
	}, validationErr.Violations)
}

func TestIssueStats(t *testing.T) {
	f := newIssueFixture()
	f.issues.put(model.Issue{Status: model.IssueStatusCompleted})
	f.issues.put(model.Issue{Status: model.IssueStatusInProgress})
	f.issues.put(model.Issue{Status: model.IssueStatusPending})

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.IssueStats{Total: 3, Incomplete: 2, Completed: 1, Pending: 1, InProgress: 1}, stats)
}

func TestGetWithRemarkWithoutRemark(t *testing.T) {
	f := newIssueFixture()
	issue := f.issues.put(model.Issue{})

	got, err := f.svc.GetWithRemark(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Remark)
	assert.Equal(t, issue.ID, got.ID)
}
