package repositories

import (
	"context"
	"fmt"
	"github.com/glebarez/sqlite"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"path/filepath"
	"strings"
	"time"
)

// SqliteStore implements the same contract as SnapshotStore on top of a
// SQLite database.
type SqliteStore struct {
	db   *gorm.DB
	path string
}

func NewSqliteStore(connectionString string) (*SqliteStore, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &SqliteStore{db: db, path: connectionString}, nil
}

func (s *SqliteStore) Migrate() error {
	if err := s.db.AutoMigrate(models.User{}); err != nil {
		return fmt.Errorf("failed to migrate User entity: %w", err)
	}

	if err := s.db.AutoMigrate(models.Job{}); err != nil {
		return fmt.Errorf("failed to migrate Job entity: %w", err)
	}

	if err := s.db.AutoMigrate(models.Application{}); err != nil {
		return fmt.Errorf("failed to migrate Application entity: %w", err)
	}

	if err := s.db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_student_job ON applications (student_id, job_id)").
		Error; err != nil {
		return fmt.Errorf("failed to create application index: %w", err)
	}

	return nil
}

// Load migrates the schema, seeds default accounts into an empty users table
// and repairs users stored without a password.
func (s *SqliteStore) Load(ctx context.Context) error {
	if err := s.Migrate(); err != nil {
		return err
	}

	var usersCount int64
	if err := s.db.WithContext(ctx).Model(models.User{}).Count(&usersCount).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if usersCount == 0 {
		log.Info("no users found, seeding default accounts")
		if err := s.seed(ctx); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}

	res := s.db.WithContext(ctx).Model(models.User{}).
		Where("password = '' OR password IS NULL").
		Update("password", PlaceholderPassword)
	if res.Error != nil {
		return fmt.Errorf("failed to repair passwords: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Warnf("assigned placeholder password to %d user(s) without one", res.RowsAffected)
	}

	return nil
}

// seed starts a fresh board: default accounts, no jobs, no applications.
func (s *SqliteStore) seed(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Job{}).Error; err != nil {
			return err
		}
		return tx.Create(DefaultUsers(time.Now())).Error
	})
}

func (s *SqliteStore) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *SqliteStore) AddUser(ctx context.Context, user models.User) error {
	return s.db.WithContext(ctx).Create(&user).Error
}

func (s *SqliteStore) UpdateUser(ctx context.Context, id int, patch models.UserPatch) (bool, error) {
	return updateByID(ctx, s.db, id, patch.Apply)
}

func (s *SqliteStore) NextUserID(ctx context.Context) (int, error) {
	return s.nextID(ctx, models.User{})
}

func (s *SqliteStore) Jobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := s.db.WithContext(ctx).Order("id").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *SqliteStore) AddJob(ctx context.Context, job models.Job) error {
	return s.db.WithContext(ctx).Create(&job).Error
}

func (s *SqliteStore) UpdateJob(ctx context.Context, id int, patch models.JobPatch) (bool, error) {
	return updateByID(ctx, s.db, id, patch.Apply)
}

func (s *SqliteStore) NextJobID(ctx context.Context) (int, error) {
	return s.nextID(ctx, models.Job{})
}

func (s *SqliteStore) Applications(ctx context.Context) ([]models.Application, error) {
	var applications []models.Application
	if err := s.db.WithContext(ctx).Order("id").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

func (s *SqliteStore) AddApplication(ctx context.Context, application models.Application) error {
	return s.db.WithContext(ctx).Create(&application).Error
}

func (s *SqliteStore) UpdateApplication(ctx context.Context, id int, patch models.ApplicationPatch) (bool, error) {
	return updateByID(ctx, s.db, id, patch.Apply)
}

func (s *SqliteStore) NextApplicationID(ctx context.Context) (int, error) {
	return s.nextID(ctx, models.Application{})
}

func (s *SqliteStore) nextID(ctx context.Context, model any) (int, error) {
	var maxID int
	if err := s.db.WithContext(ctx).Model(model).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// Backup writes a consistent copy of the database next to the original file.
func (s *SqliteStore) Backup(ctx context.Context, at time.Time) ([]string, error) {
	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	target := base + "_backup_" + at.Format(backupTimeLayout) + ".db"

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return nil, errors.Wrap(err, "vacuum into backup")
	}
	return []string{target}, nil
}

func (s *SqliteStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}

	return db.Close()
}

func updateByID[T any](ctx context.Context, db *gorm.DB, id int, apply func(*T)) (bool, error) {
	var record T
	err := db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	apply(&record)
	return true, db.WithContext(ctx).Save(&record).Error
}
