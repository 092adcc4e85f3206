package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/campus-job-board/internal/domain/events"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/maxaizer/campus-job-board/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	adminEmail   = "admin@campus.edu"
	companyEmail = "techcorp@example.com"
	studentEmail = "student@campus.edu"
)

type testBoard struct {
	*JobBoard
	store   *repositories.SnapshotStore
	bus     EventBus.Bus
	dataDir string
}

func newTestBoard(t *testing.T) *testBoard {
	return newTestBoardIn(t, t.TempDir())
}

func newTestBoardIn(t *testing.T, dataDir string) *testBoard {

	store, err := repositories.NewSnapshotStore(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	bus := EventBus.New()
	board, err := NewJobBoard(store, NewMemorySessions(), bus)
	require.NoError(t, err)
	board.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &testBoard{JobBoard: board, store: store, bus: bus, dataDir: dataDir}
}

func (b *testBoard) login(t *testing.T, email, password string) string {
	result, err := b.Login(context.Background(), LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return result.Token
}

func (b *testBoard) approvedJob(t *testing.T) models.Job {
	ctx := context.Background()
	job, err := b.PostJob(ctx, b.login(t, companyEmail, "company123"), PostJobRequest{Title: "Backend Intern", Type: "internship"})
	require.NoError(t, err)
	job, err = b.ReviewJob(ctx, b.login(t, adminEmail, "admin123"), job.ID, ReviewRequest{Action: ActionApprove})
	require.NoError(t, err)
	return job
}

func assertKind(t *testing.T, err error, kind ErrorKind, message string) {
	t.Helper()
	require.Error(t, err)
	var serviceErr *Error
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, kind, serviceErr.Kind)
	assert.Equal(t, message, serviceErr.Message)
}

func Test_NewJobBoard_WhenDependencyMissing_ShouldFail(t *testing.T) {

	_, err := NewJobBoard(nil, NewMemorySessions(), EventBus.New())
	assert.Error(t, err)

	_, err = NewJobBoard(&repositories.SnapshotStore{}, nil, EventBus.New())
	assert.Error(t, err)
}

func Test_Register_WhenStudent_ShouldStoreProfileAndHidePassword(t *testing.T) {

	board := newTestBoard(t)
	var published []events.UserRegistered
	require.NoError(t, board.bus.Subscribe(events.UserRegisteredTopic, func(e events.UserRegistered) {
		published = append(published, e)
	}))

	user, err := board.Register(context.Background(), RegisterRequest{
		Email: "alice@campus.edu", Password: "pw", Role: "student",
		Name: "Alice", College: "Campus University", GraduationYear: "2025",
		CompanyName: "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, user.ID)
	assert.Empty(t, user.Password)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.CompanyName)
	assert.Equal(t, "2024-05-01T12:00:00.000000", user.CreatedAt)
	require.Len(t, published, 1)
	assert.Equal(t, 4, published[0].User.ID)

	token := board.login(t, "alice@campus.edu", "pw")
	assert.NotEmpty(t, token)
}

func Test_Register_WhenCompany_ShouldBeUnverified(t *testing.T) {

	board := newTestBoard(t)

	user, err := board.Register(context.Background(), RegisterRequest{
		Email: "acme@example.com", Password: "pw", Role: "company", CompanyName: "Acme",
	})
	require.NoError(t, err)

	assert.False(t, user.Verified)
	assert.Equal(t, "Acme", user.CompanyName)
}

func Test_Register_WhenEmailTaken_ShouldReturnConflict(t *testing.T) {

	board := newTestBoard(t)

	_, err := board.Register(context.Background(), RegisterRequest{Email: studentEmail, Password: "x", Role: "student"})
	assertKind(t, err, KindConflict, "User with this email already exists")

	users, _ := board.store.Users(context.Background())
	assert.Len(t, users, 3)
}

func Test_Register_WhenFieldsMissing_ShouldReturnBadRequest(t *testing.T) {

	board := newTestBoard(t)

	_, err := board.Register(context.Background(), RegisterRequest{Email: "a@b.c", Role: "student"})
	assertKind(t, err, KindBadRequest, "Missing required fields")
}

func Test_Register_WhenRoleUnknown_ShouldReturnBadRequest(t *testing.T) {

	board := newTestBoard(t)

	_, err := board.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "x", Role: "janitor"})
	assertKind(t, err, KindBadRequest, "Invalid role")
}

func Test_Login_WhenCredentialsWrong_ShouldReturnSameError(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()

	_, err := board.Login(ctx, LoginRequest{Email: adminEmail, Password: "wrong"})
	assertKind(t, err, KindUnauthenticated, "Invalid email or password")

	_, err = board.Login(ctx, LoginRequest{Email: "nobody@campus.edu", Password: "admin123"})
	assertKind(t, err, KindUnauthenticated, "Invalid email or password")
}

func Test_Login_ShouldIssueDistinctTokens(t *testing.T) {

	board := newTestBoard(t)

	first, err := board.Login(context.Background(), LoginRequest{Email: adminEmail, Password: "admin123"})
	require.NoError(t, err)
	second := board.login(t, adminEmail, "admin123")

	assert.NotEqual(t, first.Token, second)
	assert.Equal(t, 1, first.User.ID)
	assert.Empty(t, first.User.Password)
}

func Test_Logout_ShouldInvalidateOnlyThatSession(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	first := board.login(t, studentEmail, "student123")
	second := board.login(t, studentEmail, "student123")

	board.Logout(first)
	board.Logout("")

	_, err := board.Me(ctx, first)
	assertKind(t, err, KindUnauthenticated, "Not authenticated")

	me, err := board.Me(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", me.Name)
	assert.Empty(t, me.Password)
}

func Test_PostJob_WhenCompanyVerified_ShouldCreatePendingJob(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()

	job, err := board.PostJob(ctx, board.login(t, companyEmail, "company123"), PostJobRequest{
		Title: "Go Developer", Type: "full_time", Location: "Remote",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, job.ID)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, "Tech Corp", job.CompanyName)
	assert.Equal(t, 2, job.CompanyID)

	approved, err := board.ApprovedJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, approved)

	own, err := board.CompanyJobs(ctx, board.login(t, companyEmail, "company123"))
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func Test_PostJob_WhenCallerNotAllowed_ShouldBeForbidden(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()

	_, err := board.PostJob(ctx, board.login(t, studentEmail, "student123"), PostJobRequest{Title: "x"})
	assertKind(t, err, KindForbidden, "Only company users can post jobs")

	_, err = board.Register(ctx, RegisterRequest{Email: "new@co.com", Password: "pw", Role: "company"})
	require.NoError(t, err)
	_, err = board.PostJob(ctx, board.login(t, "new@co.com", "pw"), PostJobRequest{Title: "x"})
	assertKind(t, err, KindForbidden, "Company account needs to be verified")

	_, err = board.PostJob(ctx, "bogus", PostJobRequest{Title: "x"})
	assertKind(t, err, KindUnauthenticated, "Not authenticated")
}

func Test_PostJob_WhenInputInvalid_ShouldReturnBadRequest(t *testing.T) {

	board := newTestBoard(t)
	token := board.login(t, companyEmail, "company123")

	_, err := board.PostJob(context.Background(), token, PostJobRequest{Type: "full_time"})
	assertKind(t, err, KindBadRequest, "Missing required fields")

	_, err = board.PostJob(context.Background(), token, PostJobRequest{Title: "x", Type: "forever"})
	assertKind(t, err, KindBadRequest, "Invalid value for type")
}

func Test_PostJob_WhenStoreCannotWrite_ShouldReturnInternalError(t *testing.T) {

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, repositories.JobsFile), 0755))
	board := newTestBoardIn(t, dir)

	_, err := board.PostJob(context.Background(), board.login(t, companyEmail, "company123"), PostJobRequest{Title: "x"})
	assertKind(t, err, KindInternal, "Failed to save data")
}

func Test_Job_WhenMissing_ShouldReturnNotFound(t *testing.T) {

	board := newTestBoard(t)

	_, err := board.Job(context.Background(), 42)
	assertKind(t, err, KindNotFound, "Job not found")
}

func Test_Apply_ShouldCreatePendingApplicationOnce(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	job := board.approvedJob(t)
	token := board.login(t, studentEmail, "student123")

	application, err := board.Apply(ctx, token, ApplyRequest{JobID: job.ID, CoverLetter: "hire me"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, application.Status)
	assert.Equal(t, "John Doe", application.StudentName)
	assert.Equal(t, 3, application.StudentID)

	_, err = board.Apply(ctx, token, ApplyRequest{JobID: job.ID})
	assertKind(t, err, KindConflict, "You have already applied for this job")

	applications, _ := board.store.Applications(ctx)
	assert.Len(t, applications, 1)
}

func Test_Apply_WhenJobNotApproved_ShouldReturnNotFound(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	job, err := board.PostJob(ctx, board.login(t, companyEmail, "company123"), PostJobRequest{Title: "x"})
	require.NoError(t, err)
	token := board.login(t, studentEmail, "student123")

	_, err = board.Apply(ctx, token, ApplyRequest{JobID: job.ID})
	assertKind(t, err, KindNotFound, "Job not found or not approved")

	_, err = board.Apply(ctx, token, ApplyRequest{})
	assertKind(t, err, KindBadRequest, "Missing required fields")

	_, err = board.Apply(ctx, board.login(t, companyEmail, "company123"), ApplyRequest{JobID: job.ID})
	assertKind(t, err, KindForbidden, "Only students can apply for jobs")
}

func Test_MyApplications_ShouldDependOnRole(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	job := board.approvedJob(t)
	_, err := board.Apply(ctx, board.login(t, studentEmail, "student123"), ApplyRequest{JobID: job.ID})
	require.NoError(t, err)

	mine, err := board.MyApplications(ctx, board.login(t, studentEmail, "student123"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Job)
	assert.Equal(t, job.Title, mine[0].Job.Title)

	received, err := board.MyApplications(ctx, board.login(t, companyEmail, "company123"))
	require.NoError(t, err)
	assert.Len(t, received, 1)

	_, err = board.Register(ctx, RegisterRequest{Email: "other@co.com", Password: "pw", Role: "company"})
	require.NoError(t, err)
	none, err := board.MyApplications(ctx, board.login(t, "other@co.com", "pw"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = board.MyApplications(ctx, board.login(t, adminEmail, "admin123"))
	assertKind(t, err, KindForbidden, "Invalid role")
}

func Test_UpdateApplicationStatus_ShouldRequireOwningCompany(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	job := board.approvedJob(t)
	application, err := board.Apply(ctx, board.login(t, studentEmail, "student123"), ApplyRequest{JobID: job.ID})
	require.NoError(t, err)

	var changed []events.ApplicationStatusChanged
	require.NoError(t, board.bus.Subscribe(events.ApplicationStatusChangedTopic, func(e events.ApplicationStatusChanged) {
		changed = append(changed, e)
	}))

	_, err = board.Register(ctx, RegisterRequest{Email: "other@co.com", Password: "pw", Role: "company"})
	require.NoError(t, err)
	_, err = board.UpdateApplicationStatus(ctx, board.login(t, "other@co.com", "pw"), application.ID,
		StatusUpdateRequest{Status: "approved"})
	assertKind(t, err, KindForbidden, "Access denied")

	owner := board.login(t, companyEmail, "company123")
	_, err = board.UpdateApplicationStatus(ctx, owner, 99, StatusUpdateRequest{Status: "approved"})
	assertKind(t, err, KindNotFound, "Application not found")

	_, err = board.UpdateApplicationStatus(ctx, owner, application.ID, StatusUpdateRequest{})
	assertKind(t, err, KindBadRequest, "Missing required fields")

	updated, err := board.UpdateApplicationStatus(ctx, owner, application.ID, StatusUpdateRequest{Status: "interview"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatus("interview"), updated.Status)

	stored, _ := board.store.Applications(ctx)
	assert.Equal(t, models.ApplicationStatus("interview"), stored[0].Status)
	require.Len(t, changed, 1)
	assert.Equal(t, models.ApplicationPending, changed[0].Previous)
}

func Test_VerifyCompany_ShouldUnlockPosting(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	admin := board.login(t, adminEmail, "admin123")
	company, err := board.Register(ctx, RegisterRequest{Email: "new@co.com", Password: "pw", Role: "company", CompanyName: "New Co"})
	require.NoError(t, err)

	unverified, err := board.UnverifiedCompanies(ctx, admin)
	require.NoError(t, err)
	require.Len(t, unverified, 1)
	assert.Equal(t, company.ID, unverified[0].ID)
	assert.Empty(t, unverified[0].Password)

	_, err = board.VerifyCompany(ctx, admin, 3)
	assertKind(t, err, KindNotFound, "Company not found")

	verified, err := board.VerifyCompany(ctx, admin, company.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	_, err = board.PostJob(ctx, board.login(t, "new@co.com", "pw"), PostJobRequest{Title: "x"})
	assert.NoError(t, err)

	unverified, err = board.UnverifiedCompanies(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, unverified)
}

func Test_AdminOperations_WhenNotAdmin_ShouldBeDenied(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	student := board.login(t, studentEmail, "student123")

	_, err := board.UnverifiedCompanies(ctx, student)
	assertKind(t, err, KindForbidden, "Access denied")
	_, err = board.VerifyCompany(ctx, student, 2)
	assertKind(t, err, KindForbidden, "Access denied")
	_, err = board.PendingJobs(ctx, student)
	assertKind(t, err, KindForbidden, "Access denied")
	_, err = board.ReviewJob(ctx, student, 1, ReviewRequest{Action: ActionApprove})
	assertKind(t, err, KindForbidden, "Access denied")
	_, err = board.AllApplications(ctx, student)
	assertKind(t, err, KindForbidden, "Access denied")
	_, err = board.Backup(ctx, student)
	assertKind(t, err, KindForbidden, "Access denied")
}

func Test_ReviewJob_ShouldMoveJobBetweenLists(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	admin := board.login(t, adminEmail, "admin123")
	job, err := board.PostJob(ctx, board.login(t, companyEmail, "company123"), PostJobRequest{Title: "x"})
	require.NoError(t, err)

	pending, err := board.PendingJobs(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = board.ReviewJob(ctx, admin, job.ID, ReviewRequest{Action: "archive"})
	assertKind(t, err, KindBadRequest, "Invalid action")

	_, err = board.ReviewJob(ctx, admin, 99, ReviewRequest{Action: ActionApprove})
	assertKind(t, err, KindNotFound, "Job not found")

	reviewed, err := board.ReviewJob(ctx, admin, job.ID, ReviewRequest{Action: ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, models.JobApproved, reviewed.Status)

	approved, _ := board.ApprovedJobs(ctx)
	assert.Len(t, approved, 1)
	pending, _ = board.PendingJobs(ctx, admin)
	assert.Empty(t, pending)

	reviewed, err = board.ReviewJob(ctx, admin, job.ID, ReviewRequest{Action: ActionReject})
	require.NoError(t, err)
	assert.Equal(t, models.JobRejected, reviewed.Status)
	approved, _ = board.ApprovedJobs(ctx)
	assert.Empty(t, approved)
}

func Test_AllApplications_ShouldEnrichWithJob(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	job := board.approvedJob(t)
	_, err := board.Apply(ctx, board.login(t, studentEmail, "student123"), ApplyRequest{JobID: job.ID})
	require.NoError(t, err)

	all, err := board.AllApplications(ctx, board.login(t, adminEmail, "admin123"))
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Job)
	assert.Equal(t, job.ID, all[0].Job.ID)
}

func Test_Backup_ShouldCopySnapshots(t *testing.T) {

	board := newTestBoard(t)

	files, err := board.Backup(context.Background(), board.login(t, adminEmail, "admin123"))
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(board.dataDir, "users_backup_20240501_120000.json"), files[0])
	for _, file := range files {
		assert.FileExists(t, file)
	}
}

func Test_JobBoard_ShouldSurviveRestart(t *testing.T) {

	dir := t.TempDir()
	board := newTestBoardIn(t, dir)
	ctx := context.Background()
	job := board.approvedJob(t)
	_, err := board.Apply(ctx, board.login(t, studentEmail, "student123"), ApplyRequest{JobID: job.ID})
	require.NoError(t, err)

	restarted := newTestBoardIn(t, dir)

	approved, err := restarted.ApprovedJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
	mine, err := restarted.MyApplications(ctx, restarted.login(t, studentEmail, "student123"))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	next, err := restarted.store.NextJobID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func Test_Authorize_ShouldGateByPermission(t *testing.T) {

	board := newTestBoard(t)
	ctx := context.Background()
	admin := board.login(t, adminEmail, "admin123")

	user, err := board.Authorize(ctx, admin, PermissionModerate)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	_, err = board.Authorize(ctx, "", PermissionApply)
	assertKind(t, err, KindUnauthenticated, "Not authenticated")

	_, err = board.Authorize(ctx, admin, PermissionManageApplications)
	assertKind(t, err, KindForbidden, "Access denied")

	_, err = board.Authorize(ctx, admin, Permission("launch"))
	assertKind(t, err, KindInternal, "Unknown permission")
}
