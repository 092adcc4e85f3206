package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/campus-job-board/internal/domain/events"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"reflect"
	"strings"
	"time"
)

type RegisterRequest struct {
	Email              string               `json:"email" validate:"required"`
	Password           string               `json:"password" validate:"required"`
	Role               string               `json:"role" validate:"required"`
	Name               string               `json:"name"`
	College            string               `json:"college"`
	GraduationYear     models.LenientString `json:"graduation_year"`
	CompanyName        string               `json:"company_name"`
	CompanyDescription string               `json:"company_description"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	User  models.User
	Token string
}

type PostJobRequest struct {
	Title        string `json:"title" validate:"required"`
	Type         string `json:"type" validate:"omitempty,oneof=full_time part_time internship contract"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Location     string `json:"location"`
	Deadline     string `json:"deadline"`
}

type ApplyRequest struct {
	JobID       int    `json:"job_id" validate:"required"`
	CoverLetter string `json:"cover_letter"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

type ReviewRequest struct {
	Action ReviewAction `json:"action"`
}

// JobBoard holds the rules of every endpoint: who may call it, what input it
// needs and which single store operation it performs.
type JobBoard struct {
	store    Store
	sessions SessionStore
	bus      EventBus.Bus
	validate *validator.Validate
	now      func() time.Time
}

func NewJobBoard(store Store, sessions SessionStore, bus EventBus.Bus) (*JobBoard, error) {

	if store == nil {
		return nil, errors.New("store is nil")
	}

	if sessions == nil {
		return nil, errors.New("session store is nil")
	}

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	return &JobBoard{
		store:    store,
		sessions: sessions,
		bus:      bus,
		validate: newValidator(),
		now:      time.Now,
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (b *JobBoard) validateRequest(request any) error {
	err := b.validate.Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return internalError("Invalid request", err)
	}

	failed := []validator.FieldError(fieldErrors)
	if lo.SomeBy(failed, func(fe validator.FieldError) bool { return fe.Tag() == "required" }) {
		return errMissingFields
	}

	fields := lo.Map(failed, func(fe validator.FieldError, _ int) string { return fe.Field() })
	return newError(KindBadRequest, "Invalid value for "+strings.Join(fields, ", "))
}

// Caller resolves a session token to its user.
func (b *JobBoard) Caller(ctx context.Context, token string) (models.User, error) {
	userID, ok := b.sessions.Resolve(token)
	if !ok {
		return models.User{}, errNotAuthenticated
	}

	users, err := b.store.Users(ctx)
	if err != nil {
		return models.User{}, internalError("Failed to load users", err)
	}

	user, found := lo.Find(users, func(u models.User) bool { return u.ID == userID })
	if !found {
		return models.User{}, errNotAuthenticated
	}
	return user, nil
}

func (b *JobBoard) callerWithRole(ctx context.Context, token string, role models.Role, denied *Error) (models.User, error) {
	user, err := b.Caller(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != role {
		return models.User{}, denied
	}
	return user, nil
}

// Permission names an action gated by role before any input is read.
type Permission string

const (
	PermissionPostJob            Permission = "post_job"
	PermissionApply              Permission = "apply"
	PermissionManageApplications Permission = "manage_applications"
	PermissionModerate           Permission = "moderate"
)

// Authorize resolves the caller and checks it may perform permission.
func (b *JobBoard) Authorize(ctx context.Context, token string, permission Permission) (models.User, error) {
	switch permission {
	case PermissionPostJob:
		company, err := b.callerWithRole(ctx, token, models.RoleCompany,
			newError(KindForbidden, "Only company users can post jobs"))
		if err != nil {
			return models.User{}, err
		}
		if !company.Verified {
			return models.User{}, newError(KindForbidden, "Company account needs to be verified")
		}
		return company, nil
	case PermissionApply:
		return b.callerWithRole(ctx, token, models.RoleStudent, newError(KindForbidden, "Only students can apply for jobs"))
	case PermissionManageApplications:
		return b.callerWithRole(ctx, token, models.RoleCompany, errAccessDenied)
	case PermissionModerate:
		return b.callerWithRole(ctx, token, models.RoleAdmin, errAccessDenied)
	default:
		return models.User{}, internalError("Unknown permission", errors.Errorf("permission %q", permission))
	}
}

func (b *JobBoard) storageFailure(operation string, err error) error {
	log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("%s: %v", operation, err)
	return internalError("Failed to save data", err)
}

func (b *JobBoard) timestamp() string {
	return models.Timestamp(b.now())
}

func (b *JobBoard) Register(ctx context.Context, req RegisterRequest) (models.User, error) {

	if err := b.validateRequest(req); err != nil {
		return models.User{}, err
	}

	users, err := b.store.Users(ctx)
	if err != nil {
		return models.User{}, internalError("Failed to load users", err)
	}
	if lo.ContainsBy(users, func(u models.User) bool { return u.Email == req.Email }) {
		return models.User{}, newError(KindConflict, "User with this email already exists")
	}

	role, err := models.ToRole(req.Role)
	if err != nil {
		return models.User{}, newError(KindBadRequest, "Invalid role")
	}

	id, err := b.store.NextUserID(ctx)
	if err != nil {
		return models.User{}, internalError("Failed to allocate user id", err)
	}

	user := models.User{
		ID:        id,
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
		CreatedAt: b.timestamp(),
	}

	switch role {
	case models.RoleStudent:
		user.Name = req.Name
		user.College = req.College
		user.GraduationYear = string(req.GraduationYear)
	case models.RoleCompany:
		user.CompanyName = req.CompanyName
		user.CompanyDescription = req.CompanyDescription
		user.Verified = false
	}

	if err = b.store.AddUser(ctx, user); err != nil {
		return models.User{}, b.storageFailure("add user", err)
	}

	log.Infof("registered %s user %d", user.Role, user.ID)
	b.bus.Publish(events.UserRegisteredTopic, events.UserRegistered{User: user.Public()})
	return user.Public(), nil
}

// Login answers unknown emails and wrong passwords with the same error.
func (b *JobBoard) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {

	users, err := b.store.Users(ctx)
	if err != nil {
		return LoginResult{}, internalError("Failed to load users", err)
	}

	user, found := lo.Find(users, func(u models.User) bool {
		return u.Email == req.Email && u.Password == req.Password
	})
	if !found || req.Email == "" {
		return LoginResult{}, errInvalidCredentials
	}

	token, err := b.sessions.Create(user.ID)
	if err != nil {
		return LoginResult{}, internalError("Failed to create session", err)
	}

	return LoginResult{User: user.Public(), Token: token}, nil
}

func (b *JobBoard) Logout(token string) {
	if token != "" {
		b.sessions.Invalidate(token)
	}
}

func (b *JobBoard) Me(ctx context.Context, token string) (models.User, error) {
	user, err := b.Caller(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

func (b *JobBoard) ApprovedJobs(ctx context.Context) ([]models.Job, error) {
	return b.jobsWithStatus(ctx, models.JobApproved)
}

func (b *JobBoard) jobsWithStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	jobs, err := b.store.Jobs(ctx)
	if err != nil {
		return nil, internalError("Failed to load jobs", err)
	}
	return lo.Filter(jobs, func(job models.Job, _ int) bool { return job.Status == status }), nil
}

func (b *JobBoard) PostJob(ctx context.Context, token string, req PostJobRequest) (models.Job, error) {

	company, err := b.Authorize(ctx, token, PermissionPostJob)
	if err != nil {
		return models.Job{}, err
	}

	if err = b.validateRequest(req); err != nil {
		return models.Job{}, err
	}

	id, err := b.store.NextJobID(ctx)
	if err != nil {
		return models.Job{}, internalError("Failed to allocate job id", err)
	}

	job := models.Job{
		ID:           id,
		CompanyID:    company.ID,
		CompanyName:  company.CompanyName,
		Title:        req.Title,
		Type:         models.JobType(req.Type),
		Description:  req.Description,
		Requirements: req.Requirements,
		Location:     req.Location,
		Deadline:     req.Deadline,
		Status:       models.JobPending,
		CreatedAt:    b.timestamp(),
	}

	if err = b.store.AddJob(ctx, job); err != nil {
		return models.Job{}, b.storageFailure("add job", err)
	}

	b.bus.Publish(events.JobPostedTopic, events.JobPosted{Job: job})
	return job, nil
}

func (b *JobBoard) CompanyJobs(ctx context.Context, token string) ([]models.Job, error) {

	company, err := b.callerWithRole(ctx, token, models.RoleCompany, errAccessDenied)
	if err != nil {
		return nil, err
	}

	jobs, err := b.store.Jobs(ctx)
	if err != nil {
		return nil, internalError("Failed to load jobs", err)
	}
	return lo.Filter(jobs, func(job models.Job, _ int) bool { return job.CompanyID == company.ID }), nil
}

func (b *JobBoard) Job(ctx context.Context, id int) (models.Job, error) {

	jobs, err := b.store.Jobs(ctx)
	if err != nil {
		return models.Job{}, internalError("Failed to load jobs", err)
	}

	job, found := lo.Find(jobs, func(job models.Job) bool { return job.ID == id })
	if !found {
		return models.Job{}, newError(KindNotFound, "Job not found")
	}
	return job, nil
}

func (b *JobBoard) Apply(ctx context.Context, token string, req ApplyRequest) (models.Application, error) {

	student, err := b.Authorize(ctx, token, PermissionApply)
	if err != nil {
		return models.Application{}, err
	}

	if err = b.validateRequest(req); err != nil {
		return models.Application{}, err
	}

	jobs, err := b.store.Jobs(ctx)
	if err != nil {
		return models.Application{}, internalError("Failed to load jobs", err)
	}
	if !lo.ContainsBy(jobs, func(job models.Job) bool { return job.ID == req.JobID && job.Status == models.JobApproved }) {
		return models.Application{}, newError(KindNotFound, "Job not found or not approved")
	}

	applications, err := b.store.Applications(ctx)
	if err != nil {
		return models.Application{}, internalError("Failed to load applications", err)
	}
	if lo.ContainsBy(applications, func(a models.Application) bool {
		return a.JobID == req.JobID && a.StudentID == student.ID
	}) {
		return models.Application{}, newError(KindConflict, "You have already applied for this job")
	}

	id, err := b.store.NextApplicationID(ctx)
	if err != nil {
		return models.Application{}, internalError("Failed to allocate application id", err)
	}

	application := models.Application{
		ID:          id,
		JobID:       req.JobID,
		StudentID:   student.ID,
		StudentName: student.Name,
		Status:      models.ApplicationPending,
		CoverLetter: req.CoverLetter,
		AppliedAt:   b.timestamp(),
	}

	if err = b.store.AddApplication(ctx, application); err != nil {
		return models.Application{}, b.storageFailure("add application", err)
	}

	b.bus.Publish(events.ApplicationSubmittedTopic, events.ApplicationSubmitted{Application: application})
	return application, nil
}

// MyApplications lists a student's own applications, or the applications to
// a company's jobs.
func (b *JobBoard) MyApplications(ctx context.Context, token string) ([]models.EnrichedApplication, error) {

	user, err := b.Caller(ctx, token)
	if err != nil {
		return nil, err
	}

	jobs, applications, err := b.jobsAndApplications(ctx)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case models.RoleStudent:
		mine := lo.Filter(applications, func(a models.Application, _ int) bool { return a.StudentID == user.ID })
		return enrich(mine, jobs), nil
	case models.RoleCompany:
		ownJobIDs := lo.FilterMap(jobs, func(job models.Job, _ int) (int, bool) { return job.ID, job.CompanyID == user.ID })
		received := lo.Filter(applications, func(a models.Application, _ int) bool {
			return lo.Contains(ownJobIDs, a.JobID)
		})
		return enrich(received, jobs), nil
	default:
		return nil, newError(KindForbidden, "Invalid role")
	}
}

// UpdateApplicationStatus accepts any non-empty status string.
func (b *JobBoard) UpdateApplicationStatus(ctx context.Context, token string, applicationID int,
	req StatusUpdateRequest) (models.Application, error) {

	company, err := b.Authorize(ctx, token, PermissionManageApplications)
	if err != nil {
		return models.Application{}, err
	}

	if err = b.validateRequest(req); err != nil {
		return models.Application{}, err
	}

	jobs, applications, err := b.jobsAndApplications(ctx)
	if err != nil {
		return models.Application{}, err
	}

	application, found := lo.Find(applications, func(a models.Application) bool { return a.ID == applicationID })
	if !found {
		return models.Application{}, newError(KindNotFound, "Application not found")
	}

	if !lo.ContainsBy(jobs, func(job models.Job) bool { return job.ID == application.JobID && job.CompanyID == company.ID }) {
		return models.Application{}, errAccessDenied
	}

	previous := application.Status
	patch := models.ApplicationPatch{Status: lo.ToPtr(models.ApplicationStatus(req.Status))}
	if _, err = b.store.UpdateApplication(ctx, applicationID, patch); err != nil {
		return models.Application{}, b.storageFailure("update application", err)
	}
	patch.Apply(&application)

	b.bus.Publish(events.ApplicationStatusChangedTopic, events.ApplicationStatusChanged{
		Application: application,
		Previous:    previous,
		CompanyID:   company.ID,
	})
	return application, nil
}

func (b *JobBoard) UnverifiedCompanies(ctx context.Context, token string) ([]models.User, error) {

	if _, err := b.Authorize(ctx, token, PermissionModerate); err != nil {
		return nil, err
	}

	users, err := b.store.Users(ctx)
	if err != nil {
		return nil, internalError("Failed to load users", err)
	}

	return lo.FilterMap(users, func(u models.User, _ int) (models.User, bool) {
		return u.Public(), u.Role == models.RoleCompany && !u.Verified
	}), nil
}

func (b *JobBoard) VerifyCompany(ctx context.Context, token string, companyID int) (models.User, error) {

	admin, err := b.Authorize(ctx, token, PermissionModerate)
	if err != nil {
		return models.User{}, err
	}

	users, err := b.store.Users(ctx)
	if err != nil {
		return models.User{}, internalError("Failed to load users", err)
	}

	company, found := lo.Find(users, func(u models.User) bool { return u.ID == companyID })
	if !found || company.Role != models.RoleCompany {
		return models.User{}, newError(KindNotFound, "Company not found")
	}

	patch := models.UserPatch{Verified: lo.ToPtr(true)}
	if _, err = b.store.UpdateUser(ctx, companyID, patch); err != nil {
		return models.User{}, b.storageFailure("verify company", err)
	}
	patch.Apply(&company)

	b.bus.Publish(events.CompanyVerifiedTopic, events.CompanyVerified{Company: company.Public(), AdminID: admin.ID})
	return company.Public(), nil
}

func (b *JobBoard) PendingJobs(ctx context.Context, token string) ([]models.Job, error) {

	if _, err := b.Authorize(ctx, token, PermissionModerate); err != nil {
		return nil, err
	}
	return b.jobsWithStatus(ctx, models.JobPending)
}

// ReviewJob approves or rejects a job. Jobs that were already reviewed may be
// reviewed again.
func (b *JobBoard) ReviewJob(ctx context.Context, token string, jobID int, req ReviewRequest) (models.Job, error) {

	admin, err := b.Authorize(ctx, token, PermissionModerate)
	if err != nil {
		return models.Job{}, err
	}

	job, err := b.Job(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}

	var status models.JobStatus
	switch req.Action {
	case ActionApprove:
		status = models.JobApproved
	case ActionReject:
		status = models.JobRejected
	default:
		return models.Job{}, newError(KindBadRequest, "Invalid action")
	}

	patch := models.JobPatch{Status: &status}
	if _, err = b.store.UpdateJob(ctx, jobID, patch); err != nil {
		return models.Job{}, b.storageFailure("review job", err)
	}
	patch.Apply(&job)

	b.bus.Publish(events.JobReviewedTopic, events.JobReviewed{Job: job, AdminID: admin.ID})
	return job, nil
}

func (b *JobBoard) AllApplications(ctx context.Context, token string) ([]models.EnrichedApplication, error) {

	if _, err := b.Authorize(ctx, token, PermissionModerate); err != nil {
		return nil, err
	}

	jobs, applications, err := b.jobsAndApplications(ctx)
	if err != nil {
		return nil, err
	}
	return enrich(applications, jobs), nil
}

// Backup copies the current snapshots on demand.
func (b *JobBoard) Backup(ctx context.Context, token string) ([]string, error) {

	if _, err := b.Authorize(ctx, token, PermissionModerate); err != nil {
		return nil, err
	}

	files, err := b.store.Backup(ctx, b.now())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("manual backup failed: %v", err)
		return files, internalError("Backup failed", err)
	}
	return files, nil
}

func (b *JobBoard) jobsAndApplications(ctx context.Context) ([]models.Job, []models.Application, error) {
	jobs, err := b.store.Jobs(ctx)
	if err != nil {
		return nil, nil, internalError("Failed to load jobs", err)
	}

	applications, err := b.store.Applications(ctx)
	if err != nil {
		return nil, nil, internalError("Failed to load applications", err)
	}
	return jobs, applications, nil
}

func enrich(applications []models.Application, jobs []models.Job) []models.EnrichedApplication {
	return lo.Map(applications, func(a models.Application, _ int) models.EnrichedApplication {
		enriched := models.EnrichedApplication{Application: a}
		if job, found := lo.Find(jobs, func(job models.Job) bool { return job.ID == a.JobID }); found {
			enriched.Job = &job
		}
		return enriched
	})
}
