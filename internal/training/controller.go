package training

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sentimen/internal/domain"
)

// ErrTrainingInProgress is returned when Start is called while a job is
// already running. A second job is rejected, never queued: queueing would
// silently retrain on a dataset that may already be superseded.
var ErrTrainingInProgress = errors.New("a training job is already running")

// Trainer is the external training adapter. Train blocks for the whole
// fine-tuning run; the controller bounds it with a timeout.
type Trainer interface {
	Train(ctx context.Context, datasetPath string) error
}

// ReloadFunc atomically activates the freshly trained weights for
// subsequent inference.
type ReloadFunc func(ctx context.Context) error

const defaultTrainingTimeout = 2 * time.Hour

// Controller owns the single process-wide training job: Idle/Running state,
// the status snapshot, and the reload-on-success step. All snapshot fields
// change together under one lock, so Status never sees a torn state.
type Controller struct {
	trainer Trainer
	reload  ReloadFunc
	notify  func(message string)
	timeout time.Duration

	mu        sync.Mutex
	running   bool
	message   string
	timestamp time.Time
	cancel    context.CancelFunc
}

func NewController(trainer Trainer, reload ReloadFunc) *Controller {
	return &Controller{
		trainer: trainer,
		reload:  reload,
		timeout: defaultTrainingTimeout,
	}
}

// SetTimeout bounds a single training run. Zero or negative keeps the
// default.
func (c *Controller) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SetNotifier registers a best-effort completion hook (e.g. Slack). It runs
// after the job finishes, outside the lock.
func (c *Controller) SetNotifier(notify func(message string)) {
	c.notify = notify
}

// Start transitions Idle -> Running and launches the job detached. The
// caller returns immediately and polls Status.
func (c *Controller) Start(datasetPath string) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrTrainingInProgress
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.running = true
	c.message = "Training in progress..."
	c.timestamp = time.Now()
	c.cancel = cancel
	c.mu.Unlock()

	log.Printf("training start dataset=%s timeout=%s", datasetPath, c.timeout)
	go c.run(ctx, cancel, datasetPath)
	return nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, datasetPath string) {
	defer cancel()

	// The job must always end Idle, even if an adapter panics.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("training panic: %v", r)
			c.finish(fmt.Sprintf("Training failed: internal error: %v", r))
		}
	}()

	if err := c.trainer.Train(ctx, datasetPath); err != nil {
		log.Printf("training failed: %v", err)
		c.finish(fmt.Sprintf("Training failed: %v", err))
		return
	}

	// Honor cancellation between the trainer finishing and the reload: a
	// cancelled job must not activate new weights.
	if ctx.Err() != nil {
		log.Printf("training cancelled before reload: %v", ctx.Err())
		c.finish(fmt.Sprintf("Training cancelled: %v", ctx.Err()))
		return
	}

	if err := c.reload(ctx); err != nil {
		log.Printf("model reload failed: %v", err)
		c.finish(fmt.Sprintf("Training completed but model reload failed: %v", err))
		return
	}

	log.Println("training completed, model reloaded")
	c.finish("Training completed successfully!")
}

func (c *Controller) finish(message string) {
	c.mu.Lock()
	c.running = false
	c.message = message
	c.timestamp = time.Now()
	c.cancel = nil
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(message)
	}
}

// Cancel signals the in-flight job, if any. The job itself still drives the
// Running -> Idle transition.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status returns the current snapshot. The three fields are read together
// under the lock.
func (c *Controller) Status() domain.TrainingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.TrainingStatus{
		IsTraining: c.running,
		Message:    c.message,
		Timestamp:  c.timestamp,
	}
}
