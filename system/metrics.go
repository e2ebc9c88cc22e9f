package system

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teamtask_tasks_created_total",
		Help: "Task rows created, one per assignee.",
	})
	statusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_task_status_changes_total",
		Help: "Status transitions by new status.",
	}, []string{"status"})
	notificationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_notifications_created_total",
		Help: "Notifications persisted by type.",
	}, []string{"type"})
	notificationsPushed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_notifications_pushed_total",
		Help: "Realtime push attempts by result.",
	}, []string{"result"})
	statsCacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "teamtask_stats_cache_hits_total"})
	statsCacheMiss = prometheus.NewCounter(prometheus.CounterOpts{Name: "teamtask_stats_cache_miss_total"})
)

// RegisterMetrics adds the service collectors to reg. Registering twice
// against the same registry is tolerated.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		tasksCreated, statusChanges, notificationsCreated,
		notificationsPushed, statsCacheHits, statsCacheMiss,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
