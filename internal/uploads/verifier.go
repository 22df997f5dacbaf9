package uploads

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ObjectStat checks that an uploaded object exists and reports its size.
type ObjectStat interface {
	StatObject(ctx context.Context, key string) (int64, error)
}

// TrackAssetUpdater persists verification results for tracks.
type TrackAssetUpdater interface {
	MarkAssetReady(ctx context.Context, trackID string, size int64) error
	MarkAssetFailed(ctx context.Context, trackID string) error
}

// VerifierConfig controls the concurrency characteristics of the verifier.
type VerifierConfig struct {
	QueueSize int
	Workers   int
	// StatTimeout bounds a single storage round trip.
	StatTimeout time.Duration
}

// Verifier asynchronously confirms that the object a track points at was
// actually uploaded through its signed URL, then records the asset status.
type Verifier struct {
	store   ObjectStat
	updater TrackAssetUpdater
	logger  *slog.Logger
	timeout time.Duration

	jobs   chan verifyJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type verifyJob struct {
	trackID     string
	storagePath string
}

var errVerifierClosed = errors.New("upload verifier closed")

// NewVerifier constructs a background worker pool that verifies uploads.
func NewVerifier(store ObjectStat, updater TrackAssetUpdater, cfg VerifierConfig, logger *slog.Logger) *Verifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.StatTimeout <= 0 {
		cfg.StatTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	v := &Verifier{
		store:   store,
		updater: updater,
		logger:  logger,
		timeout: cfg.StatTimeout,
		jobs:    make(chan verifyJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	v.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go v.worker()
	}

	return v
}

// Enqueue schedules verification for the supplied track.
func (v *Verifier) Enqueue(ctx context.Context, trackID, storagePath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-v.ctx.Done():
		return errVerifierClosed
	default:
	}

	job := verifyJob{trackID: trackID, storagePath: storagePath}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-v.ctx.Done():
		return errVerifierClosed
	case v.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (v *Verifier) Shutdown(ctx context.Context) error {
	v.once.Do(func() {
		v.cancel()
		close(v.jobs)
	})

	done := make(chan struct{})
	go func() {
		v.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (v *Verifier) worker() {
	defer v.wg.Done()

	for job := range v.jobs {
		v.handleJob(job)
	}
}

func (v *Verifier) handleJob(job verifyJob) {
	if v.store == nil || v.updater == nil {
		v.logger.Error("upload verifier missing dependencies", "hasStore", v.store != nil, "hasUpdater", v.updater != nil)
		return
	}

	statCtx, cancel := context.WithTimeout(context.Background(), v.timeout)
	size, err := v.store.StatObject(statCtx, job.storagePath)
	cancel()
	if err != nil {
		v.logger.Error("upload verification failed", "trackId", job.trackID, "storagePath", job.storagePath, "error", err)
		v.recordFailure(job.trackID)
		return
	}

	if err := v.recordSuccess(job.trackID, size); err != nil {
		v.logger.Error("mark track asset ready", "trackId", job.trackID, "error", err)
		v.recordFailure(job.trackID)
	}
}

func (v *Verifier) recordFailure(trackID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.updater.MarkAssetFailed(ctx, trackID); err != nil {
		v.logger.Error("record upload failure", "trackId", trackID, "error", err)
	}
}

func (v *Verifier) recordSuccess(trackID string, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return v.updater.MarkAssetReady(ctx, trackID, size)
}
