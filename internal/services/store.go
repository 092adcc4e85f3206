package services

import (
	"context"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"time"
)

// Store owns the users, jobs and applications collections. Reads return
// records in insertion order; Update* report whether a record matched.
type Store interface {
	Users(ctx context.Context) ([]models.User, error)
	AddUser(ctx context.Context, user models.User) error
	UpdateUser(ctx context.Context, id int, patch models.UserPatch) (bool, error)
	NextUserID(ctx context.Context) (int, error)

	Jobs(ctx context.Context) ([]models.Job, error)
	AddJob(ctx context.Context, job models.Job) error
	UpdateJob(ctx context.Context, id int, patch models.JobPatch) (bool, error)
	NextJobID(ctx context.Context) (int, error)

	Applications(ctx context.Context) ([]models.Application, error)
	AddApplication(ctx context.Context, application models.Application) error
	UpdateApplication(ctx context.Context, id int, patch models.ApplicationPatch) (bool, error)
	NextApplicationID(ctx context.Context) (int, error)

	Backup(ctx context.Context, at time.Time) ([]string, error)
}
