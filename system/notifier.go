package system

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"teamtask/cache"
	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"

	"go.uber.org/zap"
)

const unreadLimit = 10

// Notifier writes notification records for task lifecycle events and serves
// the recipient-side reads.
type Notifier struct {
	store  storage.Store
	cache  *cache.Cache
	pool   *NotificationWorkerPool
	logger *zap.Logger
}

func NewNotifier(store storage.Store, c *cache.Cache, pool *NotificationWorkerPool, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{store: store, cache: c, pool: pool, logger: logger}
}

// NotifyAssigned tells the assignee about a freshly created row. It returns
// nil without error when either party cannot be resolved.
func (n *Notifier) NotifyAssigned(ctx context.Context, task *entity.Task) (*entity.Notification, error) {
	note, err := n.notifyAssigned(ctx, n.store, task)
	if err != nil {
		return nil, err
	}
	n.dispatch(ctx, note)
	return note, nil
}

// NotifyStatusChanged tells the assigner that the assignee moved the row to
// newStatus. Self-assigned rows produce nothing.
func (n *Notifier) NotifyStatusChanged(ctx context.Context, task *entity.Task, oldStatus, newStatus component.Status) (*entity.Notification, error) {
	note, err := n.notifyStatusChanged(ctx, n.store, task, oldStatus, newStatus)
	if err != nil {
		return nil, err
	}
	n.dispatch(ctx, note)
	return note, nil
}

func (n *Notifier) notifyAssigned(ctx context.Context, st storage.Store, task *entity.Task) (*entity.Notification, error) {
	assignee, assigner, ok, err := n.parties(ctx, st, task)
	if err != nil || !ok {
		return nil, err
	}

	note := &entity.Notification{
		UserID:         assignee.ID,
		Type:           entity.TaskAssigned,
		Title:          "New Task Assigned",
		Message:        fmt.Sprintf("You have been assigned a new task: \"%s\" by %s", task.Title, assigner.Name),
		NotifiableType: entity.NotifiableTask,
		NotifiableID:   task.ID,
	}
	if err := st.CreateNotification(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (n *Notifier) notifyStatusChanged(ctx context.Context, st storage.Store, task *entity.Task, oldStatus, newStatus component.Status) (*entity.Notification, error) {
	assignee, assigner, ok, err := n.parties(ctx, st, task)
	if err != nil || !ok {
		return nil, err
	}
	if assignee.ID == assigner.ID {
		return nil, nil
	}

	note := &entity.Notification{
		UserID:         assigner.ID,
		Type:           entity.TaskStatusChanged,
		Title:          "Task Status Updated",
		Message:        fmt.Sprintf("Task \"%s\" has been marked as %s by %s", task.Title, newStatus.Label(), assignee.Name),
		NotifiableType: entity.NotifiableTask,
		NotifiableID:   task.ID,
	}
	if err := st.CreateNotification(ctx, note); err != nil {
		return nil, err
	}
	n.logger.Debug("status change notification",
		zap.Int64("task_id", task.ID), zap.String("from", string(oldStatus)), zap.String("to", string(newStatus)))
	return note, nil
}

func (n *Notifier) parties(ctx context.Context, st storage.Store, task *entity.Task) (entity.UserRef, entity.UserRef, bool, error) {
	refs, err := st.GetUserRefs(ctx, []int64{task.AssignedTo, task.AssignedBy})
	if err != nil {
		return entity.UserRef{}, entity.UserRef{}, false, err
	}
	assignee, okTo := refs[task.AssignedTo]
	assigner, okBy := refs[task.AssignedBy]
	if !okTo || !okBy {
		n.logger.Debug("notification skipped, user missing",
			zap.Int64("task_id", task.ID),
			zap.Int64("assigned_to", task.AssignedTo),
			zap.Int64("assigned_by", task.AssignedBy))
		return entity.UserRef{}, entity.UserRef{}, false, nil
	}
	return assignee, assigner, true, nil
}

// dispatch runs the post-commit side effects of persisted notifications.
func (n *Notifier) dispatch(ctx context.Context, notes ...*entity.Notification) {
	for _, note := range notes {
		if note == nil {
			continue
		}
		notificationsCreated.WithLabelValues(string(note.Type)).Inc()
		n.invalidateUnread(ctx, note.UserID)

		if n.pool == nil {
			continue
		}
		count, err := n.UnreadCount(ctx, note.UserID)
		if err != nil {
			n.logger.Warn("counting unread for push", zap.Int64("user_id", note.UserID), zap.Error(err))
		}
		n.pool.Enqueue(NotificationJob{Notification: *note, UnreadCount: count})
	}
}

func (n *Notifier) List(ctx context.Context, recipient int64, page int) (entity.Page[entity.Notification], error) {
	if page < 1 {
		page = 1
	}
	per := entity.NotificationPageSize
	notes, total, err := n.store.ListNotifications(ctx, recipient, per, entity.Offset(page, per))
	if err != nil {
		return entity.Page[entity.Notification]{}, err
	}
	return entity.NewPage(notes, total, page, per), nil
}

// Unread returns the latest unread notifications, newest first.
func (n *Notifier) Unread(ctx context.Context, recipient int64) ([]entity.Notification, error) {
	notes, err := n.store.ListUnreadNotifications(ctx, recipient, unreadLimit)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []entity.Notification{}
	}
	return notes, nil
}

func (n *Notifier) UnreadCount(ctx context.Context, recipient int64) (int, error) {
	key := cache.UnreadCountKey(recipient)
	if cached, err := n.cache.Get(ctx, key); err == nil {
		if count, convErr := strconv.Atoi(cached); convErr == nil {
			return count, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		n.logger.Warn("reading unread count cache", zap.String("key", key), zap.Error(err))
	}

	count, err := n.store.CountUnreadNotifications(ctx, recipient)
	if err != nil {
		return 0, err
	}
	if err := n.cache.Set(ctx, key, strconv.Itoa(count)); err != nil {
		n.logger.Warn("writing unread count cache", zap.String("key", key), zap.Error(err))
	}
	return count, nil
}

// MarkRead flips one notification owned by recipient. It reports false when
// the id does not exist or belongs to someone else.
func (n *Notifier) MarkRead(ctx context.Context, id, recipient int64) (bool, error) {
	ok, err := n.store.MarkNotificationRead(ctx, id, recipient)
	if err != nil {
		return false, err
	}
	if ok {
		n.invalidateUnread(ctx, recipient)
	}
	return ok, nil
}

func (n *Notifier) MarkAllRead(ctx context.Context, recipient int64) error {
	if _, err := n.store.MarkAllNotificationsRead(ctx, recipient); err != nil {
		return err
	}
	n.invalidateUnread(ctx, recipient)
	return nil
}

func (n *Notifier) invalidateUnread(ctx context.Context, userID int64) {
	if err := n.cache.Delete(ctx, cache.UnreadCountKey(userID)); err != nil {
		n.logger.Warn("invalidating unread count", zap.Int64("user_id", userID), zap.Error(err))
	}
}
