package repositories

import (
	"context"
	"encoding/json"
	"github.com/maxaizer/campus-job-board/internal/domain/models"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	UsersFile        = "users.json"
	JobsFile         = "jobs.json"
	ApplicationsFile = "applications.json"
)

type identifiable interface {
	GetID() int
}

// collection is one snapshot file and its resident copy. Every mutation
// rewrites the whole file.
type collection[T identifiable] struct {
	mu    sync.RWMutex
	path  string
	items []T
}

func newCollection[T identifiable](path string) *collection[T] {
	return &collection[T]{path: path, items: make([]T, 0)}
}

func (c *collection[T]) load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]T, 0)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("can't read snapshot %s, starting empty: %v", c.path, err)
		}
		return
	}

	var items []T
	if err = json.Unmarshal(data, &items); err != nil {
		log.Warnf("can't parse snapshot %s, starting empty: %v", c.path, err)
		return
	}
	if items != nil {
		c.items = items
	}
}

// persist must be called with the write lock held.
func (c *collection[T]) persist() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "marshal %s", filepath.Base(c.path))
	}
	if err = os.WriteFile(c.path, data, 0644); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("error saving %s: %v", c.path, err)
		return errors.Wrapf(err, "write %s", c.path)
	}
	return nil
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]T, len(c.items))
	copy(result, c.items)
	return result
}

// add keeps the appended item even when persisting fails.
func (c *collection[T]) add(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, item)
	return c.persist()
}

func (c *collection[T]) update(id int, apply func(item *T)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].GetID() == id {
			apply(&c.items[i])
			return true, c.persist()
		}
	}
	return false, nil
}

func (c *collection[T]) replace(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = items
	return c.persist()
}

// replaceWith lets fn edit the items in place and persists only when fn
// reports a change.
func (c *collection[T]) replaceWith(fn func(items []T) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !fn(c.items) {
		return nil
	}
	return c.persist()
}

func (c *collection[T]) nextID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return nextID(c.items)
}

func (c *collection[T]) duplicateIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	duplicates := lo.FindDuplicatesBy(c.items, func(item T) int { return item.GetID() })
	return lo.Map(duplicates, func(item T, _ int) int { return item.GetID() })
}

func (c *collection[T]) copyTo(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src, err := os.Open(c.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func nextID[T identifiable](items []T) int {
	ids := lo.Map(items, func(item T, _ int) int { return item.GetID() })
	return lo.Max(ids) + 1
}

// SnapshotStore keeps users, jobs and applications in memory and mirrors each
// collection into its own pretty-printed JSON array file.
type SnapshotStore struct {
	dataDir      string
	users        *collection[models.User]
	jobs         *collection[models.Job]
	applications *collection[models.Application]
}

func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create data directory")
	}

	return &SnapshotStore{
		dataDir:      dataDir,
		users:        newCollection[models.User](filepath.Join(dataDir, UsersFile)),
		jobs:         newCollection[models.Job](filepath.Join(dataDir, JobsFile)),
		applications: newCollection[models.Application](filepath.Join(dataDir, ApplicationsFile)),
	}, nil
}

// Load reads the three snapshots, seeds default accounts when there are no
// users and runs the integrity pass.
func (s *SnapshotStore) Load(_ context.Context) error {
	s.users.load()
	s.jobs.load()
	s.applications.load()

	if len(s.users.snapshot()) == 0 {
		log.Info("no users found, seeding default accounts")
		var errs []error
		errs = append(errs, s.users.replace(DefaultUsers(time.Now())))
		errs = append(errs, s.jobs.replace(make([]models.Job, 0)))
		errs = append(errs, s.applications.replace(make([]models.Application, 0)))
		if err := joinErrors(errs); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to persist seed data: %v", err)
		}
	}

	s.integrityPass()
	return nil
}

func (s *SnapshotStore) integrityPass() {
	repaired := 0
	_ = s.users.replaceWith(func(items []models.User) bool {
		for i := range items {
			if items[i].Password == "" {
				items[i].Password = PlaceholderPassword
				repaired++
			}
		}
		return repaired > 0
	})
	if repaired > 0 {
		log.Warnf("assigned placeholder password to %d user(s) without one", repaired)
	}

	for name, ids := range map[string][]int{
		UsersFile:        s.users.duplicateIDs(),
		JobsFile:         s.jobs.duplicateIDs(),
		ApplicationsFile: s.applications.duplicateIDs(),
	} {
		if len(ids) > 0 {
			log.Warnf("duplicate ids in %s: %v", name, ids)
		}
	}
}

func (s *SnapshotStore) Users(_ context.Context) ([]models.User, error) {
	return s.users.snapshot(), nil
}

func (s *SnapshotStore) AddUser(_ context.Context, user models.User) error {
	return s.users.add(user)
}

func (s *SnapshotStore) UpdateUser(_ context.Context, id int, patch models.UserPatch) (bool, error) {
	return s.users.update(id, patch.Apply)
}

func (s *SnapshotStore) NextUserID(_ context.Context) (int, error) {
	return s.users.nextID(), nil
}

func (s *SnapshotStore) Jobs(_ context.Context) ([]models.Job, error) {
	return s.jobs.snapshot(), nil
}

func (s *SnapshotStore) AddJob(_ context.Context, job models.Job) error {
	return s.jobs.add(job)
}

func (s *SnapshotStore) UpdateJob(_ context.Context, id int, patch models.JobPatch) (bool, error) {
	return s.jobs.update(id, patch.Apply)
}

func (s *SnapshotStore) NextJobID(_ context.Context) (int, error) {
	return s.jobs.nextID(), nil
}

func (s *SnapshotStore) Applications(_ context.Context) ([]models.Application, error) {
	return s.applications.snapshot(), nil
}

func (s *SnapshotStore) AddApplication(_ context.Context, application models.Application) error {
	return s.applications.add(application)
}

func (s *SnapshotStore) UpdateApplication(_ context.Context, id int, patch models.ApplicationPatch) (bool, error) {
	return s.applications.update(id, patch.Apply)
}

func (s *SnapshotStore) NextApplicationID(_ context.Context) (int, error) {
	return s.applications.nextID(), nil
}

// Backup copies the three snapshot files to timestamped siblings. Originals
// are left untouched.
func (s *SnapshotStore) Backup(_ context.Context, at time.Time) ([]string, error) {
	suffix := "_backup_" + at.Format(backupTimeLayout) + ".json"

	var files []string
	var errs []error

	copyOne := func(path string, copyTo func(string) error) {
		target := strings.TrimSuffix(path, ".json") + suffix
		if err := copyTo(target); err != nil {
			errs = append(errs, errors.Wrapf(err, "backup %s", filepath.Base(path)))
			return
		}
		files = append(files, target)
	}

	copyOne(s.users.path, s.users.copyTo)
	copyOne(s.jobs.path, s.jobs.copyTo)
	copyOne(s.applications.path, s.applications.copyTo)

	return files, joinErrors(errs)
}

func (s *SnapshotStore) Close() error {
	return nil
}
