package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"issue-service/internal/model"
	"issue-service/internal/repository"
)

type ReporterResolver interface {
	ResolveReporter(ctx context.Context, email, username string) (*model.User, error)
}

type IssueServiceDeps struct {
	Tx         Transactor
	Issues     IssueStore
	Updates    UpdateStore
	Remarks    RemarkStore
	History    RemarkHistoryStore
	Staff      StaffStore
	Outbox     OutboxStore
	Dispatcher EventDispatcher
	Storage    Storage
	RemarkSvc  *RemarkService
	Reporters  ReporterResolver
}

type IssueService struct {
	tx         Transactor
	issues     IssueStore
	updates    UpdateStore
	remarks    RemarkStore
	history    RemarkHistoryStore
	staff      StaffStore
	outbox     OutboxStore
	dispatcher EventDispatcher
	remarkSvc  *RemarkService
	reporters  ReporterResolver
	media      uploader
	log        zerolog.Logger
}

func NewIssueService(deps IssueServiceDeps, log zerolog.Logger) *IssueService {
	log = log.With().Str("component", "issues").Logger()
	return &IssueService{
		tx:         deps.Tx,
		issues:     deps.Issues,
		updates:    deps.Updates,
		remarks:    deps.Remarks,
		history:    deps.History,
		staff:      deps.Staff,
		outbox:     deps.Outbox,
		dispatcher: deps.Dispatcher,
		remarkSvc:  deps.RemarkSvc,
		reporters:  deps.Reporters,
		media:      uploader{storage: deps.Storage, log: log},
		log:        log,
	}
}

type CreateIssueInput struct {
	IssueFields
	ReporterEmail    string
	ReporterUsername string
	Photos           []MediaFile
	Videos           []MediaFile
}

// Create validates everything up front, uploads media, then persists the issue, its reporter and
// its initial NEW remark in one transaction. Media is removed again if that transaction fails.
func (s *IssueService) Create(ctx context.Context, input CreateIssueInput) (*model.Issue, error) {
	var violations []string
	violations = append(violations, validateIssueFields(input.IssueFields)...)
	violations = append(violations, validateIssueMedia(input.Photos, input.Videos)...)
	violations = append(violations, validateReporterEmail(input.ReporterEmail)...)
	if len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	photoURLs, err := s.media.uploadAll(ctx, photoFolder, input.Photos)
	if err != nil {
		s.media.discard(ctx, photoURLs)
		return nil, err
	}
	videoURLs, err := s.media.uploadAll(ctx, videoFolder, input.Videos)
	if err != nil {
		s.media.discard(ctx, append(photoURLs, videoURLs...))
		return nil, err
	}

	issue := &model.Issue{
		Status:    model.IssueStatusPending,
		PhotoURLs: pq.StringArray(photoURLs),
		VideoURLs: pq.StringArray(videoURLs),
	}
	applyIssueFields(issue, input.IssueFields)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if strings.TrimSpace(input.ReporterEmail) != "" {
			reporter, err := s.reporters.ResolveReporter(ctx, input.ReporterEmail, input.ReporterUsername)
			if err != nil {
				return err
			}
			issue.ReportedByID = &reporter.ID
			issue.ReportedBy = reporter
		}

		if err := s.issues.Create(ctx, issue); err != nil {
			return err
		}
		return s.remarkSvc.CreateInitialRemarkForNewIssue(ctx, issue)
	})
	if err != nil {
		s.media.discard(ctx, issue.MediaURLs())
		return nil, err
	}

	s.log.Info().
		Str("issue_id", issue.ID.String()).
		Int("photos", len(photoURLs)).
		Int("videos", len(videoURLs)).
		Msg("issue created")

	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return issue, nil
}

func (s *IssueService) Update(ctx context.Context, id uuid.UUID, fields IssueFields) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if violations := validateIssueFields(fields); len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	applyIssueFields(issue, fields)
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Delete removes the issue after a best-effort cascade over its dependents. Media deletion is
// recorded in the outbox in the same transaction as the row delete and dispatched after commit.
func (s *IssueService) Delete(ctx context.Context, id uuid.UUID) error {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	log := s.log.With().Str("issue_id", id.String()).Logger()

	steps := []cleanupStep{
		{name: "updates", run: func(ctx context.Context) error {
			_, err := s.updates.DeleteByIssueID(ctx, id)
			return err
		}},
		{name: "remark history", run: func(ctx context.Context) error {
			_, err := s.history.DeleteByIssueID(ctx, id)
			return err
		}},
		{name: "remark", run: func(ctx context.Context) error {
			_, err := s.remarks.DeleteByIssueID(ctx, id)
			return err
		}},
	}

	failed := runCleanup(ctx, log, steps)

	mediaEvents := mediaDeleteEvents(issue)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.issues.Delete(ctx, id); err != nil {
			return notFound(err)
		}
		return s.outbox.Enqueue(ctx, mediaEvents)
	})
	if err != nil {
		log.Error().Err(err).Strs("failed_steps", failed).Msg("issue delete failed")
		return err
	}

	s.dispatcher.Dispatch(ctx, mediaEvents)

	log.Info().Strs("failed_steps", failed).Msg("issue deleted")
	return nil
}

func mediaDeleteEvents(issue *model.Issue) []model.OutboxEvent {
	urls := issue.MediaURLs()
	events := make([]model.OutboxEvent, 0, len(urls))
	for _, url := range urls {
		events = append(events, model.NewMediaDeleteEvent(url))
	}
	return events
}

// Assign sets the issue's staff member. Reassigning an assigned issue is allowed.
func (s *IssueService) Assign(ctx context.Context, issueID, staffID uuid.UUID, priority string) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, notFound(err)
	}

	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, notFound(err)
	}

	issue.AssignTo(staff, priority)
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("issue_id", issue.ID.String()).
		Str("staff_id", staff.StaffID).
		Msg("issue assigned")

	return issue, nil
}

type IssueQuery struct {
	Status string
	Page   int
	Size   int
}

func (s *IssueService) List(ctx context.Context, query IssueQuery) (*Page[model.Issue], error) {
	filter := repository.IssueListFilter{}
	if query.Status != "" {
		status := strings.ToUpper(strings.TrimSpace(query.Status))
		filter.Status = &status
	}
	return s.page(ctx, filter, query.Page, query.Size)
}

func (s *IssueService) ListUnassigned(ctx context.Context, page, size int) (*Page[model.Issue], error) {
	assigned := false
	return s.page(ctx, repository.IssueListFilter{Assigned: &assigned}, page, size)
}

// ListAssigned returns a staff caller's own assignments, or every assigned issue for admins.
func (s *IssueService) ListAssigned(ctx context.Context, principal model.Principal, page, size int) (*Page[model.Issue], error) {
	assigned := true
	filter := repository.IssueListFilter{Assigned: &assigned}

	switch {
	case principal.IsAdmin():
	case principal.IsStaff():
		staffID := principal.SubjectID
		filter.AssignedToID = &staffID
	default:
		return nil, ErrPermissionDenied
	}

	return s.page(ctx, filter, page, size)
}

func (s *IssueService) page(ctx context.Context, filter repository.IssueListFilter, page, size int) (*Page[model.Issue], error) {
	filter.Page, filter.Size = normalizePage(page, size)

	issues, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[model.Issue]{Items: issues, Total: total, Page: filter.Page, Size: filter.Size}, nil
}

// Nearby returns coordinate-located issues within radiusKm of the point, closest first.
func (s *IssueService) Nearby(ctx context.Context, lat, lon, radiusKm *float64) ([]model.NearbyIssue, error) {
	var violations []string
	if lat == nil {
		violations = append(violations, "latitude is required")
	} else if *lat < -90 || *lat > 90 {
		violations = append(violations, "latitude must be between -90 and 90")
	}
	if lon == nil {
		violations = append(violations, "longitude is required")
	} else if *lon < -180 || *lon > 180 {
		violations = append(violations, "longitude must be between -180 and 180")
	}
	if radiusKm == nil {
		violations = append(violations, "radiusKm is required")
	} else if *radiusKm <= 0 {
		violations = append(violations, "radiusKm must be positive")
	}
	if len(violations) > 0 {
		return nil, newValidationError(violations...)
	}

	issues, err := s.issues.ListNearby(ctx, *lat, *lon, *radiusKm*1000)
	if err != nil {
		return nil, err
	}

	nearby := make([]model.NearbyIssue, 0, len(issues))
	for _, issue := range issues {
		if issue.Latitude == nil || issue.Longitude == nil {
			continue
		}
		nearby = append(nearby, model.NearbyIssue{
			Issue:          issue,
			DistanceMeters: haversine(*lat, *lon, *issue.Latitude, *issue.Longitude),
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})

	return nearby, nil
}

func (s *IssueService) Stats(ctx context.Context) (model.IssueStats, error) {
	return s.issues.Stats(ctx)
}

// IssueWithRemark is an issue together with its current remark, if any.
type IssueWithRemark struct {
	*model.Issue
	Remark *model.IssueRemark `json:"remark"`
}

func (s *IssueService) GetWithRemark(ctx context.Context, id uuid.UUID) (*IssueWithRemark, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	remark, err := s.remarkSvc.GetRemark(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return &IssueWithRemark{Issue: issue, Remark: remark}, nil
}
