package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"issue-service/internal/model"
	"issue-service/internal/repository"
)

// fakeTx rolls back events enqueued on outbox when fn fails.
type fakeTx struct {
	calls  int
	outbox *fakeOutbox
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	mark := 0
	if f.outbox != nil {
		mark = len(f.outbox.events)
	}
	err := fn(ctx)
	if err != nil && f.outbox != nil {
		f.outbox.events = f.outbox.events[:mark]
	}
	return err
}

type fakeIssueStore struct {
	issues    map[uuid.UUID]model.Issue
	createErr error
	deleteErr error
}

func newFakeIssueStore() *fakeIssueStore {
	return &fakeIssueStore{issues: make(map[uuid.UUID]model.Issue)}
}

func (f *fakeIssueStore) put(issue model.Issue) *model.Issue {
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	if issue.Status == "" {
		issue.Status = model.IssueStatusPending
	}
	f.issues[issue.ID] = issue
	return &issue
}

func (f *fakeIssueStore) Create(_ context.Context, issue *model.Issue) error {
	if f.createErr != nil {
		return f.createErr
	}
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	if issue.Status == "" {
		issue.Status = model.IssueStatusPending
	}
	issue.CreatedAt = time.Now()
	f.issues[issue.ID] = *issue
	return nil
}

func (f *fakeIssueStore) GetByID(_ context.Context, id uuid.UUID) (*model.Issue, error) {
	issue, ok := f.issues[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &issue, nil
}

func (f *fakeIssueStore) Update(_ context.Context, issue *model.Issue) error {
	if _, ok := f.issues[issue.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.issues[issue.ID] = *issue
	return nil
}

func (f *fakeIssueStore) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.issues[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.issues, id)
	return nil
}

func (f *fakeIssueStore) List(_ context.Context, filter repository.IssueListFilter) ([]model.Issue, int64, error) {
	var matched []model.Issue
	for _, issue := range f.issues {
		if filter.Status != nil && issue.Status != *filter.Status {
			continue
		}
		if filter.Assigned != nil && issue.Assigned != *filter.Assigned {
			continue
		}
		if filter.AssignedToID != nil && (issue.AssignedToID == nil || *issue.AssignedToID != *filter.AssignedToID) {
			continue
		}
		matched = append(matched, issue)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := filter.Page * filter.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeIssueStore) ListNearby(_ context.Context, lat, lon, radiusMeters float64) ([]model.Issue, error) {
	var nearby []model.Issue
	for _, issue := range f.issues {
		if issue.Latitude == nil || issue.Longitude == nil {
			continue
		}
		if haversine(lat, lon, *issue.Latitude, *issue.Longitude) <= radiusMeters {
			nearby = append(nearby, issue)
		}
	}
	return nearby, nil
}

func (f *fakeIssueStore) assignedTo(staffID uuid.UUID, completed bool) []uuid.UUID {
	var ids []uuid.UUID
	for id, issue := range f.issues {
		if issue.AssignedToID != nil && *issue.AssignedToID == staffID && issue.IsCompleted() == completed {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fakeIssueStore) CountIncompleteByStaff(_ context.Context, staffID uuid.UUID) (int64, error) {
	return int64(len(f.assignedTo(staffID, false))), nil
}

func (f *fakeIssueStore) UnassignIncompleteByStaff(_ context.Context, staffID uuid.UUID) (int64, error) {
	ids := f.assignedTo(staffID, false)
	for _, id := range ids {
		issue := f.issues[id]
		issue.Unassign()
		f.issues[id] = issue
	}
	return int64(len(ids)), nil
}

func (f *fakeIssueStore) DetachStaffFromCompleted(_ context.Context, staffID uuid.UUID) (int64, error) {
	ids := f.assignedTo(staffID, true)
	for _, id := range ids {
		issue := f.issues[id]
		issue.Unassign()
		f.issues[id] = issue
	}
	return int64(len(ids)), nil
}

func (f *fakeIssueStore) Stats(_ context.Context) (model.IssueStats, error) {
	var stats model.IssueStats
	for _, issue := range f.issues {
		stats.Total++
		switch issue.Status {
		case model.IssueStatusCompleted:
			stats.Completed++
		case model.IssueStatusPending:
			stats.Pending++
		case model.IssueStatusInProgress:
			stats.InProgress++
		}
	}
	stats.Incomplete = stats.Total - stats.Completed
	return stats, nil
}

type fakeUpdateStore struct {
	updates   map[uuid.UUID]model.Update
	deleteErr error
}

func newFakeUpdateStore() *fakeUpdateStore {
	return &fakeUpdateStore{updates: make(map[uuid.UUID]model.Update)}
}

func (f *fakeUpdateStore) Create(_ context.Context, update *model.Update) error {
	if update.ID == uuid.Nil {
		update.ID = uuid.New()
	}
	f.updates[update.ID] = *update
	return nil
}

func (f *fakeUpdateStore) GetByID(_ context.Context, id uuid.UUID) (*model.Update, error) {
	update, ok := f.updates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &update, nil
}

func (f *fakeUpdateStore) Save(_ context.Context, update *model.Update) error {
	f.updates[update.ID] = *update
	return nil
}

func (f *fakeUpdateStore) ListByIssueID(_ context.Context, issueID uuid.UUID) ([]model.Update, error) {
	var out []model.Update
	for _, u := range f.updates {
		if u.IssueID == issueID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUpdateStore) DeleteByIssueID(_ context.Context, issueID uuid.UUID) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for id, u := range f.updates {
		if u.IssueID == issueID {
			delete(f.updates, id)
			n++
		}
	}
	return n, nil
}

type fakeRemarkStore struct {
	remarks map[uuid.UUID]model.IssueRemark
}

func newFakeRemarkStore() *fakeRemarkStore {
	return &fakeRemarkStore{remarks: make(map[uuid.UUID]model.IssueRemark)}
}

func (f *fakeRemarkStore) Create(_ context.Context, remark *model.IssueRemark) error {
	if _, exists := f.remarks[remark.IssueID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	if remark.ID == uuid.Nil {
		remark.ID = uuid.New()
	}
	f.remarks[remark.IssueID] = *remark
	return nil
}

func (f *fakeRemarkStore) Save(_ context.Context, remark *model.IssueRemark) error {
	f.remarks[remark.IssueID] = *remark
	return nil
}

func (f *fakeRemarkStore) GetByIssueID(_ context.Context, issueID uuid.UUID) (*model.IssueRemark, error) {
	remark, ok := f.remarks[issueID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &remark, nil
}

func (f *fakeRemarkStore) ExistsForIssue(_ context.Context, issueID uuid.UUID) (bool, error) {
	_, ok := f.remarks[issueID]
	return ok, nil
}

func (f *fakeRemarkStore) ListByIssueIDs(_ context.Context, issueIDs []uuid.UUID) ([]model.IssueRemark, error) {
	var out []model.IssueRemark
	for _, id := range issueIDs {
		if remark, ok := f.remarks[id]; ok {
			out = append(out, remark)
		}
	}
	return out, nil
}

func (f *fakeRemarkStore) ListNewUnviewed(_ context.Context) ([]model.IssueRemark, error) {
	var out []model.IssueRemark
	for _, remark := range f.remarks {
		if remark.RemarkType == model.RemarkTypeNew && !remark.IsViewed {
			out = append(out, remark)
		}
	}
	return out, nil
}

func (f *fakeRemarkStore) ListAll(_ context.Context) ([]model.IssueRemark, error) {
	out := make([]model.IssueRemark, 0, len(f.remarks))
	for _, remark := range f.remarks {
		out = append(out, remark)
	}
	return out, nil
}

func (f *fakeRemarkStore) DeleteByIssueID(_ context.Context, issueID uuid.UUID) (int64, error) {
	if _, ok := f.remarks[issueID]; !ok {
		return 0, nil
	}
	delete(f.remarks, issueID)
	return 1, nil
}

type fakeHistoryStore struct {
	entries []model.IssueRemarkHistory
}

func (f *fakeHistoryStore) Append(_ context.Context, entry *model.IssueRemarkHistory) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryStore) ListByIssueID(_ context.Context, issueID uuid.UUID) ([]model.IssueRemarkHistory, error) {
	var out []model.IssueRemarkHistory
	for _, e := range f.entries {
		if e.IssueID == issueID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) DeleteByIssueID(_ context.Context, issueID uuid.UUID) (int64, error) {
	kept := f.entries[:0]
	var n int64
	for _, e := range f.entries {
		if e.IssueID == issueID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

type fakeStaffStore struct {
	staff map[uuid.UUID]model.Staff
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{staff: make(map[uuid.UUID]model.Staff)}
}

func (f *fakeStaffStore) Create(_ context.Context, staff *model.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	f.staff[staff.ID] = *staff
	return nil
}

func (f *fakeStaffStore) Save(_ context.Context, staff *model.Staff) error {
	f.staff[staff.ID] = *staff
	return nil
}

func (f *fakeStaffStore) GetByID(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	staff, ok := f.staff[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &staff, nil
}

func (f *fakeStaffStore) find(match func(model.Staff) bool) (*model.Staff, error) {
	for _, staff := range f.staff {
		if match(staff) {
			s := staff
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStaffStore) GetByStaffID(_ context.Context, staffID string) (*model.Staff, error) {
	return f.find(func(s model.Staff) bool { return s.StaffID == staffID })
}

func (f *fakeStaffStore) GetByEmail(_ context.Context, email string) (*model.Staff, error) {
	return f.find(func(s model.Staff) bool { return s.Email == email })
}

func (f *fakeStaffStore) ExistsByStaffID(ctx context.Context, staffID string) (bool, error) {
	_, err := f.GetByStaffID(ctx, staffID)
	return err == nil, nil
}

func (f *fakeStaffStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeStaffStore) List(_ context.Context) ([]model.Staff, error) {
	out := make([]model.Staff, 0, len(f.staff))
	for _, staff := range f.staff {
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (f *fakeStaffStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.staff)), nil
}

func (f *fakeStaffStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.staff[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.staff, id)
	return nil
}

type fakeAdminStore struct {
	admins map[uuid.UUID]model.Admin
}

func newFakeAdminStore(admins ...model.Admin) *fakeAdminStore {
	f := &fakeAdminStore{admins: make(map[uuid.UUID]model.Admin)}
	for _, admin := range admins {
		if admin.ID == uuid.Nil {
			admin.ID = uuid.New()
		}
		f.admins[admin.ID] = admin
	}
	return f
}

func (f *fakeAdminStore) Create(_ context.Context, admin *model.Admin) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	f.admins[admin.ID] = *admin
	return nil
}

func (f *fakeAdminStore) GetByID(_ context.Context, id uuid.UUID) (*model.Admin, error) {
	admin, ok := f.admins[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &admin, nil
}

func (f *fakeAdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	for _, admin := range f.admins {
		if admin.Email == email {
			a := admin
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminStore) List(_ context.Context) ([]model.Admin, error) {
	out := make([]model.Admin, 0, len(f.admins))
	for _, admin := range f.admins {
		out = append(out, admin)
	}
	return out, nil
}

func (f *fakeAdminStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.admins)), nil
}

func (f *fakeAdminStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.admins, id)
	return nil
}

func (f *fakeAdminStore) BackfillCreatedAt(_ context.Context, at time.Time) (int64, error) {
	var n int64
	for id, admin := range f.admins {
		if admin.CreatedAt == nil {
			created := at
			admin.CreatedAt = &created
			f.admins[id] = admin
			n++
		}
	}
	return n, nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]model.User)}
	for _, user := range users {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		f.users[user.Email] = user
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.Email] = *user
	return nil
}

func (f *fakeUserStore) Save(_ context.Context, user *model.User) error {
	f.users[user.Email] = *user
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

type fakeOutbox struct {
	events []model.OutboxEvent
	err    error
}

func (f *fakeOutbox) Enqueue(_ context.Context, events []model.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

type fakeDispatcher struct {
	dispatched []model.OutboxEvent
}

func (f *fakeDispatcher) Dispatch(_ context.Context, events []model.OutboxEvent) {
	f.dispatched = append(f.dispatched, events...)
}

type fakeStorage struct {
	uploaded  []string
	deleted   []string
	failOn    string
	uploadSeq int
}

func (f *fakeStorage) Upload(_ context.Context, folder, filename, _ string, body io.Reader) (string, error) {
	if filename == f.failOn {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.uploadSeq++
	url := fmt.Sprintf("https://media.test/%s/%d-%s", folder, f.uploadSeq, filename)
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type sentNotification struct {
	token   string
	issueID uuid.UUID
	status  string
	comment string
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) NotifyStatusChange(_ context.Context, token string, issueID uuid.UUID, status, comment string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{token: token, issueID: issueID, status: status, comment: comment})
	return nil
}

func (f *fakeNotifier) SendTest(_ context.Context, token, title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{token: token, comment: body})
	return nil
}

type fakeIdentity struct {
	enabled   bool
	accounts  map[string]string
	createErr error
	passwords map[string]string
}

func newFakeIdentity(enabled bool) *fakeIdentity {
	return &fakeIdentity{enabled: enabled, accounts: map[string]string{}, passwords: map[string]string{}}
}

func (f *fakeIdentity) Enabled() bool { return f.enabled }

func (f *fakeIdentity) CreateAccount(_ context.Context, email, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	uid := "uid-" + strings.Split(email, "@")[0]
	f.accounts[uid] = email
	return uid, nil
}

func (f *fakeIdentity) PasswordResetLink(_ context.Context, email string) (string, error) {
	return "https://reset.test/" + email, nil
}

func (f *fakeIdentity) UpdatePassword(_ context.Context, externalID, password string) error {
	f.passwords[externalID] = password
	return nil
}

func (f *fakeIdentity) DeleteAccount(_ context.Context, externalID string) error {
	delete(f.accounts, externalID)
	return nil
}

type fakeTokens struct {
	issued []model.Principal
}

func (f *fakeTokens) Issue(principal model.Principal) (string, time.Time, error) {
	f.issued = append(f.issued, principal)
	return "token-" + principal.Role, time.Now().Add(time.Hour), nil
}

func photo(name string) MediaFile {
	return MediaFile{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        3,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("img"))), nil
		},
	}
}

func video(name string, size int64) MediaFile {
	return MediaFile{
		Filename:    name,
		ContentType: "video/mp4",
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("vid"))), nil
		},
	}
}

func float(v float64) *float64 {
	return &v
}
