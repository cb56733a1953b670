package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/fixboard/fixboard/pkg/models"
)

// Dispatcher drains the notification outbox with a small worker pool and
// hands each row to the configured Sender. Failed deliveries retry with
// exponential backoff; rows past max attempts land in the dead-letter table.
type Dispatcher struct {
	repo        *Repository
	send        Sender
	logger      *slog.Logger
	workerCount int
	stop        chan struct{}
	wg          sync.WaitGroup

	// MaxAttempts applies to events enqueued through this dispatcher; zero
	// falls back to the repository default.
	MaxAttempts int
}

func NewDispatcher(repo *Repository, send Sender, logger *slog.Logger, workerCount int) *Dispatcher {
	if workerCount <= 0 {
		workerCount = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	if send == nil {
		send = LogSender(logger)
	}
	return &Dispatcher{repo: repo, send: send, logger: logger, workerCount: workerCount, stop: make(chan struct{})}
}

// LogSender is the default delivery channel: it just logs the event. Real
// deployments plug in email or push senders here.
func LogSender(logger *slog.Logger) Sender {
	return func(ctx context.Context, n *models.Notification) error {
		logger.Info("notification", slog.String("type", n.Type), slog.String("payload", string(n.Payload)))
		return nil
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them
func (d *Dispatcher) Stop() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			d.logger.Info("notify worker stopping", "id", id)
			return
		case <-ctx.Done():
			d.logger.Info("context canceled, notify worker exiting", "id", id)
			return
		default:
			n, err := d.repo.FetchNext(ctx)
			if err != nil {
				d.logger.Error("fetch notification", "err", err)
				time.Sleep(1 * time.Second)
				continue
			}
			if n == nil {
				// nothing to do
				time.Sleep(200 * time.Millisecond)
				continue
			}
			err = d.send(ctx, n)
			if err == nil {
				n.Status = "done"
				_ = d.repo.Update(ctx, n)
				continue
			}
			// delivery failed
			n.Attempts++
			n.LastError = err.Error()
			if n.Attempts >= n.MaxAttempts {
				n.Status = "failed"
				if mvErr := d.repo.MoveToDeadLetter(ctx, n); mvErr != nil {
					d.logger.Error("move to dead letter", "err", mvErr)
				}
				continue
			}
			backoff := BackoffDuration(n.Attempts)
			t := time.Now().Add(backoff)
			n.NextTryAt = &t
			n.Status = "retry"
			if upErr := d.repo.Update(ctx, n); upErr != nil {
				d.logger.Error("update notification for retry", "err", upErr)
			}
		}
	}
}

// Enqueue convenience helper that persists an event for delivery
func (d *Dispatcher) Enqueue(ctx context.Context, typ string, payload any, priority int) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	n := &models.Notification{Type: typ, Payload: b, Priority: priority, MaxAttempts: d.MaxAttempts, ScheduledAt: time.Now()}
	return d.repo.Enqueue(ctx, n)
}
