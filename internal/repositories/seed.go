package repositories

import (
	stderrors "errors"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"time"
)

// PlaceholderPassword is assigned by the integrity pass to user records that
// were stored without a password.
const PlaceholderPassword = "changeme"

const backupTimeLayout = "20060102_150405"

// DefaultUsers are written when the user collection is empty at startup.
func DefaultUsers(now time.Time) []models.User {
	createdAt := models.Timestamp(now)
	return []models.User{
		{
			ID:        1,
			Email:     "admin@campus.edu",
			Password:  "admin123",
			Role:      models.RoleAdmin,
			CreatedAt: createdAt,
		},
		{
			ID:                 2,
			Email:              "techcorp@example.com",
			Password:           "company123",
			Role:               models.RoleCompany,
			CompanyName:        "Tech Corp",
			CompanyDescription: "Leading technology company",
			Verified:           true,
			CreatedAt:          createdAt,
		},
		{
			ID:             3,
			Email:          "student@campus.edu",
			Password:       "student123",
			Role:           models.RoleStudent,
			Name:           "John Doe",
			College:        "Campus University",
			GraduationYear: "2024",
			CreatedAt:      createdAt,
		},
	}
}

func joinErrors(errs []error) error {
	return stderrors.Join(errs...)
}
