package system

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"teamtask/common"
	"teamtask/entity"

	"go.uber.org/zap"
)

// Pusher delivers a payload to a user's live connections.
type Pusher interface {
	Push(userID int64, data []byte) bool
}

type NotificationJob struct {
	Notification entity.Notification
	UnreadCount  int
}

// NotificationWorkerPool pushes committed notifications to online users.
// The database row is the record; a dropped push is only logged.
type NotificationWorkerPool struct {
	JobQueue  chan NotificationJob
	NumWorker int
	pusher    Pusher
	logger    *zap.Logger
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
}

func NewNotificationWorkerPool(pusher Pusher, numWorker, queueSize int, logger *zap.Logger) *NotificationWorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if numWorker < 1 {
		numWorker = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &NotificationWorkerPool{
		JobQueue:  make(chan NotificationJob, queueSize),
		NumWorker: numWorker,
		pusher:    pusher,
		logger:    logger,
	}
}

func (p *NotificationWorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.NumWorker; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop closes the queue and waits for workers to drain it. Later Enqueue
// calls are dropped.
func (p *NotificationWorkerPool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.JobQueue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Enqueue never blocks the request path; a full queue drops the push.
func (p *NotificationWorkerPool) Enqueue(job NotificationJob) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		notificationsPushed.WithLabelValues("dropped").Inc()
		p.logger.Debug("notification pool stopped, push dropped",
			zap.Int64("notification_id", job.Notification.ID))
		return false
	}
	select {
	case p.JobQueue <- job:
		return true
	default:
		notificationsPushed.WithLabelValues("dropped").Inc()
		p.logger.Warn("notification queue full, push dropped",
			zap.Int64("notification_id", job.Notification.ID),
			zap.Int64("user_id", job.Notification.UserID))
		return false
	}
}

func (p *NotificationWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		case job, ok := <-p.JobQueue:
			if !ok {
				p.logger.Debug("notification queue closed", zap.Int("worker", id))
				return
			}
			p.push(job)
		}
	}
}

func (p *NotificationWorkerPool) push(job NotificationJob) {
	if p.pusher == nil {
		return
	}

	n := job.Notification
	payload, err := json.Marshal(common.WSMessage{
		Event:        string(n.Type),
		Notification: &n,
		UnreadCount:  job.UnreadCount,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		p.logger.Error("encoding notification push", zap.Error(err))
		return
	}

	if p.pusher.Push(n.UserID, payload) {
		notificationsPushed.WithLabelValues("delivered").Inc()
		return
	}
	notificationsPushed.WithLabelValues("offline").Inc()
}
