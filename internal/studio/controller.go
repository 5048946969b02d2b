package studio

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photoanimator/internal/domain"
)

const defaultExpectedLatency = 3 * time.Second

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("studio: controller closed")

// Pipeline renders one job. Implementations live in providers/video.
type Pipeline interface {
	Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error)
}

// Options configures a Controller.
type Options struct {
	Pipeline        Pipeline
	Logger          *zerolog.Logger
	Locale          string
	Now             func() time.Time
	NewID           func() uuid.UUID
	ExpectedLatency time.Duration
	// OnChange receives every transition in order. It runs on the goroutine
	// that caused the transition, outside the controller lock.
	OnChange func(Snapshot)
}

// Controller owns the active image, the settings draft and the current job.
// All commands are serialised; the pipeline call runs on its own goroutine
// and its completion is applied only if the job is still the tracked one.
type Controller struct {
	pipeline Pipeline
	logger   zerolog.Logger
	locale   string
	now      func() time.Time
	newID    func() uuid.UUID
	expected time.Duration
	onChange func(Snapshot)

	mu           sync.Mutex
	phase        Phase
	image        *domain.ImageSource
	draft        domain.AnimationRequest
	job          *domain.Job
	cancel       context.CancelFunc
	notice       *Notice
	version      uint64
	lastActivity time.Time
	closed       bool
	pending      []Snapshot
	delivering   bool

	wg sync.WaitGroup
}

func NewController(opts Options) (*Controller, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("studio: pipeline is required")
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.New
	}
	expected := opts.ExpectedLatency
	if expected <= 0 {
		expected = defaultExpectedLatency
	}
	locale := opts.Locale
	if _, ok := noticeCatalog[locale]; !ok {
		locale = MatchLocale(locale)
	}
	return &Controller{
		pipeline:     opts.Pipeline,
		logger:       logger,
		locale:       locale,
		now:          now,
		newID:        newID,
		expected:     expected,
		onChange:     opts.OnChange,
		phase:        PhaseIdle,
		draft:        domain.DefaultAnimationRequest(),
		lastActivity: now(),
	}, nil
}

// Locale is the language notices are rendered in.
func (c *Controller) Locale() string {
	return c.locale
}

// SelectImage replaces the active image. Any running job is cancelled and
// any previous result dropped.
func (c *Controller) SelectImage(data []byte, contentType string) error {
	img, err := domain.NewImageSource(data, contentType, c.now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.touchLocked()
	c.dropJobLocked("image replaced")
	c.image = img
	c.phase = c.inputPhaseLocked()
	c.setNoticeLocked(NewNotice(c.locale, NoticeImageLoaded, c.now()))
	c.logger.Debug().
		Str("phase", string(c.phase)).
		Str("content_type", img.ContentType).
		Int("bytes", img.Size()).
		Msg("studio: image selected")
	c.commitAndUnlock()
	return nil
}

// ClearImage removes the active image and returns to PhaseIdle.
func (c *Controller) ClearImage() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.touchLocked()
	c.dropJobLocked("image cleared")
	c.image = nil
	c.phase = PhaseIdle
	c.notice = nil
	c.commitAndUnlock()
}

// UpdateSetting edits one field of the draft. A refused value leaves both the
// draft and the phase untouched.
func (c *Controller) UpdateSetting(field domain.Field, value any) error {
	return c.UpdateSettings(map[domain.Field]any{field: value})
}

// UpdateSettings applies several fields as one transition. Fields are set in
// domain.Fields order and the first refused value discards the whole batch.
func (c *Controller) UpdateSettings(values map[domain.Field]any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.touchLocked()
	draft := c.draft
	for _, field := range domain.Fields() {
		value, ok := values[field]
		if !ok {
			continue
		}
		if err := draft.Set(field, value); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.draft = draft

	switch c.phase {
	case PhaseIdle, PhaseRunning:
	case PhaseAwaitingInput:
		c.phase = c.inputPhaseLocked()
	default:
		if !draft.Complete() {
			c.phase = PhaseAwaitingInput
		}
	}
	c.commitAndUnlock()
	return nil
}

// Submit validates the active image and draft and starts a job. It is
// accepted from PhaseReady and, as a manual retry, from PhaseSucceeded and
// PhaseFailed. ctx values reach the pipeline but its cancellation does not;
// the job is cancelled only by SelectImage, ClearImage or Close.
func (c *Controller) Submit(ctx context.Context) (uuid.UUID, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return uuid.Nil, ErrClosed
	}
	c.touchLocked()
	if c.phase == PhaseRunning {
		c.mu.Unlock()
		return uuid.Nil, domain.ErrAlreadyRunning
	}
	if err := domain.Validate(c.image, c.draft); err != nil {
		c.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrNotReady, err)
	}
	switch c.phase {
	case PhaseReady, PhaseSucceeded, PhaseFailed:
	default:
		phase := c.phase
		c.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%w: phase %s", domain.ErrNotReady, phase)
	}

	job := &domain.Job{
		ID:        c.newID(),
		Image:     *c.image,
		Request:   c.draft,
		Status:    domain.JobStatusRunning,
		StartedAt: c.now(),
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.job = job
	c.cancel = cancel
	c.phase = PhaseRunning
	c.notice = nil

	c.logger.Info().
		Str("job_id", job.ID.String()).
		Str("format", string(job.Request.Format())).
		Str("style", string(job.Request.Style())).
		Int("duration", job.Request.Duration()).
		Msg("studio: job started")

	c.wg.Add(1)
	go c.run(jobCtx, job.ID, job.Image, job.Request)

	c.commitAndUnlock()
	return job.ID, nil
}

// Snapshot returns a consistent copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LastActivity is the time of the most recent command.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Wait blocks until every pipeline goroutine started so far has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the running job and refuses further commands. It does not
// wait for the pipeline goroutine; use Wait for that.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.dropJobLocked("controller closed")
}

func (c *Controller) run(ctx context.Context, id uuid.UUID, img domain.ImageSource, req domain.AnimationRequest) {
	defer c.wg.Done()
	artifact, err := c.pipeline.Run(ctx, img, req)
	c.complete(id, req.Format(), artifact, err)
}

func (c *Controller) complete(id uuid.UUID, format domain.Format, artifact *domain.Artifact, err error) {
	if err == nil {
		err = checkArtifact(format, artifact)
	}

	c.mu.Lock()
	if c.job == nil || c.job.ID != id || c.job.Status != domain.JobStatusRunning {
		c.mu.Unlock()
		discardedCompletions.Inc()
		c.logger.Debug().Str("job_id", id.String()).Msg("studio: stale completion discarded")
		return
	}

	finished := c.now()
	job := *c.job
	job.FinishedAt = finished
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		job.Status = domain.JobStatusFailed
		job.Err = err
		c.phase = PhaseFailed
		c.setNoticeLocked(failureNotice(c.locale, err, finished))
		c.logger.Warn().
			Err(err).
			Str("job_id", id.String()).
			Dur("elapsed", job.Elapsed(finished)).
			Msg("studio: job failed")
	} else {
		job.Status = domain.JobStatusSucceeded
		job.Artifact = artifact
		c.phase = PhaseSucceeded
		c.setNoticeLocked(readyNotice(c.locale, format, finished))
		c.logger.Info().
			Str("job_id", id.String()).
			Str("content_type", artifact.ContentType).
			Int("bytes", artifact.Size()).
			Dur("elapsed", job.Elapsed(finished)).
			Msg("studio: job succeeded")
	}
	c.job = &job
	c.commitAndUnlock()
}

func checkArtifact(format domain.Format, artifact *domain.Artifact) error {
	if artifact == nil || artifact.Size() == 0 {
		return fmt.Errorf("%w: empty artifact", domain.ErrPipelineUnavailable)
	}
	mediaType, _, err := mime.ParseMediaType(artifact.ContentType)
	if err != nil || mediaType != format.ContentType() {
		return fmt.Errorf("%w: artifact content type %q does not match %s", domain.ErrPipelineRejected, artifact.ContentType, format)
	}
	return nil
}

func (c *Controller) inputPhaseLocked() Phase {
	if c.image != nil && c.draft.Complete() {
		return PhaseReady
	}
	return PhaseAwaitingInput
}

// dropJobLocked forgets the tracked job so that its completion is discarded.
func (c *Controller) dropJobLocked(reason string) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.job != nil && c.job.Status == domain.JobStatusRunning {
		c.logger.Info().
			Str("job_id", c.job.ID.String()).
			Str("reason", reason).
			Msg("studio: job cancelled")
	}
	c.job = nil
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.touchLocked()
	c.mu.Unlock()
}

func (c *Controller) touchLocked() {
	c.lastActivity = c.now()
}

func (c *Controller) setNoticeLocked(n Notice) {
	c.notice = &n
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:         c.version,
		Phase:           c.phase,
		Request:         c.draft,
		ExpectedLatency: c.expected,
	}
	if c.image != nil {
		snap.Image = &ImageInfo{
			ContentType: c.image.ContentType,
			Format:      c.image.Format,
			Width:       c.image.Width,
			Height:      c.image.Height,
			Size:        c.image.Size(),
			SelectedAt:  c.image.SelectedAt,
		}
	}
	if c.job != nil {
		snap.JobID = c.job.ID
		snap.JobStartedAt = c.job.StartedAt
		snap.JobFinishedAt = c.job.FinishedAt
		switch c.phase {
		case PhaseSucceeded:
			snap.Artifact = c.job.Artifact
		case PhaseFailed:
			snap.Err = c.job.Err
		}
	}
	if c.notice != nil {
		n := *c.notice
		snap.Notice = &n
	}
	return snap
}

// commitAndUnlock records a transition and releases mu. Observers are fed
// from a queue so that snapshots arrive in version order even when several
// goroutines commit at once; whichever goroutine finds the queue idle drains
// it.
func (c *Controller) commitAndUnlock() {
	c.version++
	transitionsTotal.WithLabelValues(string(c.phase)).Inc()
	if c.onChange == nil {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, c.snapshotLocked())
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		snap := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		c.onChange(snap)
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}
