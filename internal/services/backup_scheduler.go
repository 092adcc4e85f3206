package services

import (
	"context"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/maxaizer/campus-job-board/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type SnapshotBackuper interface {
	Backup(ctx context.Context, at time.Time) ([]string, error)
}

// BackupScheduler copies the store on a cron schedule.
type BackupScheduler struct {
	store    SnapshotBackuper
	cron     *cron.Cron
	schedule string
	now      func() time.Time
}

func NewBackupScheduler(store SnapshotBackuper, schedule string) (*BackupScheduler, error) {

	if store == nil {
		return nil, errors.New("store is nil")
	}

	bs := &BackupScheduler{
		store:    store,
		cron:     cron.New(),
		schedule: schedule,
		now:      time.Now,
	}

	_, err := bs.cron.AddFunc(schedule, bs.backup)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backup schedule %q", schedule)
	}

	return bs, nil
}

func (bs *BackupScheduler) Start() {
	bs.cron.Start()
	log.Infof("backup scheduler started, schedule: %s", bs.schedule)
}

// Stop waits for a running backup to finish.
func (bs *BackupScheduler) Stop() {
	<-bs.cron.Stop().Done()
}

func (bs *BackupScheduler) backup() {
	files, err := bs.store.Backup(context.Background(), bs.now())
	if err != nil {
		metrics.BackupsCounter.WithLabelValues("failure").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("Failed to back up data: %v", err)
		return
	}

	metrics.BackupsCounter.WithLabelValues("success").Inc()
	log.Infof("Data was backed up at %v, files: %v", bs.now().Format(time.DateTime), files)
}
