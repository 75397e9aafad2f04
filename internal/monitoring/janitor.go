package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/models"
	"github.com/isdelr/inkwell-be/internal/services"
)

const (
	// uploadGrace keeps files that were just written but whose image row is not committed yet.
	uploadGrace = 15 * time.Minute
	// diskAlertCooldown spaces out repeated storage.low events.
	diskAlertCooldown = time.Hour
)

// UploadSweeper lists and deletes stored upload files.
type UploadSweeper interface {
	Dir() string
	Orphans(referenced map[string]bool, cutoff time.Time) ([]string, error)
	Remove(url string) error
}

// Options tunes what a janitor pass does.
type Options struct {
	Schedule       string        // cron spec: standard five fields or descriptors such as "@every 1h"
	EventRetention time.Duration // 0 keeps events forever
	DiskAlertPct   float64       // 0 disables the upload volume check
}

// Report summarises one janitor pass.
type Report struct {
	FilesRemoved    int
	EventsPruned    int64
	DiskUsedPercent float64
}

// Janitor periodically removes upload files no image references, prunes old activity events
// and warns when the upload volume fills up.
type Janitor struct {
	db        *gorm.DB
	uploads   UploadSweeper
	eventSvc  services.EventServiceProvider
	opts      Options
	cron      *cron.Cron
	now       func() time.Time
	diskUsage func(ctx context.Context, dir string) (DiskStatus, error)
	lastAlert time.Time
}

// NewJanitor creates a janitor running on opts.Schedule.
func NewJanitor(db *gorm.DB, uploads UploadSweeper, eventSvc services.EventServiceProvider, opts Options) (*Janitor, error) {
	logger := cronLogger{}
	j := &Janitor{
		db:        db,
		uploads:   uploads,
		eventSvc:  eventSvc,
		opts:      opts,
		now:       time.Now,
		diskUsage: DiskUsage,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	if _, err := j.cron.AddFunc(opts.Schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			log.Error().Err(err).Msg("Janitor pass failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", opts.Schedule, err)
	}
	return j, nil
}

// Run starts the cron scheduler in the background.
func (j *Janitor) Run() {
	log.Info().Msg("Starting background janitor...")
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running pass to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	log.Info().Msg("Stopped background janitor.")
}

// RunOnce performs a single pass. Every step runs even if an earlier one fails;
// the first error is returned.
func (j *Janitor) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	removed, sweepErr := j.sweepUploads(ctx)
	report.FilesRemoved = removed

	var pruneErr error
	if j.opts.EventRetention > 0 {
		report.EventsPruned, pruneErr = j.eventSvc.Prune(ctx, j.now().Add(-j.opts.EventRetention))
	}

	var diskErr error
	if j.opts.DiskAlertPct > 0 {
		report.DiskUsedPercent, diskErr = j.checkDisk(ctx)
	}

	log.Info().
		Int("files_removed", report.FilesRemoved).
		Int64("events_pruned", report.EventsPruned).
		Float64("disk_used_percent", report.DiskUsedPercent).
		Msg("Janitor pass finished")

	for _, err := range []error{sweepErr, pruneErr, diskErr} {
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (j *Janitor) checkDisk(ctx context.Context) (float64, error) {
	status, err := j.diskUsage(ctx, j.uploads.Dir())
	if err != nil {
		return 0, err
	}
	if status.UsedPercent < j.opts.DiskAlertPct {
		return status.UsedPercent, nil
	}

	now := j.now()
	if !j.lastAlert.IsZero() && now.Sub(j.lastAlert) < diskAlertCooldown {
		return status.UsedPercent, nil
	}
	j.lastAlert = now

	log.Warn().
		Str("path", status.Path).
		Float64("used_percent", status.UsedPercent).
		Uint64("free_bytes", status.FreeBytes).
		Msg("Upload volume is running out of space")
	msg := fmt.Sprintf("Upload volume is %.1f%% full (%d bytes free).", status.UsedPercent, status.FreeBytes)
	j.eventSvc.Record(ctx, services.EventStorageLow, "warn", msg, nil, nil)
	return status.UsedPercent, nil
}

func (j *Janitor) sweepUploads(ctx context.Context) (int, error) {
	var urls []string
	if err := j.db.WithContext(ctx).Model(&models.Image{}).Pluck("image_url", &urls).Error; err != nil {
		return 0, fmt.Errorf("failed to list image references: %w", err)
	}
	referenced := make(map[string]bool, len(urls))
	for _, u := range urls {
		referenced[u] = true
	}

	orphans, err := j.uploads.Orphans(referenced, j.now().Add(-uploadGrace))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, u := range orphans {
		if err := j.uploads.Remove(u); err != nil {
			log.Warn().Err(err).Str("file", u).Msg("Janitor failed to remove orphaned upload")
			continue
		}
		removed++
	}
	return removed, nil
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
