package system

import (
	"context"
	"encoding/json"
	"errors"

	"teamtask/cache"
	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const recentLimit = 10

// TaskFilters are the optional exact-match listing filters. AssignedTo only
// applies to the manager listing.
type TaskFilters struct {
	Status     component.Status   `json:"status,omitempty"`
	Priority   component.Priority `json:"priority,omitempty"`
	AssignedTo int64              `json:"assigned_to,omitempty"`
}

// QueryService builds the deduplicated listings and the dashboard counters.
type QueryService struct {
	store  storage.Store
	cache  *cache.Cache
	logger *zap.Logger
	group  singleflight.Group
}

func NewQueryService(store storage.Store, c *cache.Cache, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{store: store, cache: c, logger: logger}
}

// ListAssignedBy lists the manager's tasks with one representative row per
// group. Filters narrow the rows first; the representative is the lowest id
// that survived them.
func (q *QueryService) ListAssignedBy(ctx context.Context, manager entity.Actor, filters TaskFilters, page int) (entity.Page[entity.Task], error) {
	page = normalizePage(page)
	rows, total, err := q.store.ListRepresentativeTasks(ctx, storage.TaskFilter{
		AssignedBy: manager.ID,
		AssignedTo: filters.AssignedTo,
		Status:     filters.Status,
		Priority:   filters.Priority,
		Limit:      entity.TaskPageSize,
		Offset:     entity.Offset(page, entity.TaskPageSize),
	})
	if err != nil {
		return entity.Page[entity.Task]{}, err
	}
	if err := q.attach(ctx, rows); err != nil {
		return entity.Page[entity.Task]{}, err
	}
	return entity.NewPage(rows, total, page, entity.TaskPageSize), nil
}

// ListAssignedTo lists every row assigned to the employee, group rows
// included, each with its siblings attached.
func (q *QueryService) ListAssignedTo(ctx context.Context, employee entity.Actor, filters TaskFilters, page int) (entity.Page[entity.Task], error) {
	page = normalizePage(page)
	rows, total, err := q.store.ListTasks(ctx, storage.TaskFilter{
		AssignedTo: employee.ID,
		Status:     filters.Status,
		Priority:   filters.Priority,
		Limit:      entity.TaskPageSize,
		Offset:     entity.Offset(page, entity.TaskPageSize),
	})
	if err != nil {
		return entity.Page[entity.Task]{}, err
	}
	if err := q.attach(ctx, rows); err != nil {
		return entity.Page[entity.Task]{}, err
	}
	return entity.NewPage(rows, total, page, entity.TaskPageSize), nil
}

func (q *QueryService) RecentAssigned(ctx context.Context, employee entity.Actor) ([]entity.Task, error) {
	rows, _, err := q.store.ListTasks(ctx, storage.TaskFilter{AssignedTo: employee.ID, Limit: recentLimit})
	if err != nil {
		return nil, err
	}
	if err := q.attach(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTask loads one row for an actor allowed to view it.
func (q *QueryService) GetTask(ctx context.Context, actor entity.Actor, id int64) (*entity.Task, error) {
	task, err := loadTask(ctx, q.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, AbilityView, task); err != nil {
		return nil, err
	}

	rows := []entity.Task{*task}
	if err := q.attach(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// ManagerStats counts rows the manager created. Group tasks count once per
// assignee.
func (q *QueryService) ManagerStats(ctx context.Context, manager entity.Actor) (entity.TaskStats, error) {
	return q.stats(ctx, cache.ManagerStatsKey(manager.ID), storage.TaskFilter{AssignedBy: manager.ID}, true)
}

func (q *QueryService) EmployeeStats(ctx context.Context, employee entity.Actor) (entity.TaskStats, error) {
	return q.stats(ctx, cache.EmployeeStatsKey(employee.ID), storage.TaskFilter{AssignedTo: employee.ID}, false)
}

func (q *QueryService) stats(ctx context.Context, key string, f storage.TaskFilter, withHigh bool) (entity.TaskStats, error) {
	if cached, err := q.cache.Get(ctx, key); err == nil {
		var stats entity.TaskStats
		if jsonErr := json.Unmarshal([]byte(cached), &stats); jsonErr == nil {
			statsCacheHits.Inc()
			return stats, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		q.logger.Warn("reading stats cache", zap.String("key", key), zap.Error(err))
	}
	statsCacheMiss.Inc()

	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		stats, err := q.store.CountTasks(ctx, f)
		if err != nil {
			return entity.TaskStats{}, err
		}
		if !withHigh {
			stats.HighPriority = nil
		}
		if data, err := json.Marshal(stats); err == nil {
			if err := q.cache.Set(ctx, key, string(data)); err != nil {
				q.logger.Warn("writing stats cache", zap.String("key", key), zap.Error(err))
			}
		}
		return stats, nil
	})
	if err != nil {
		return entity.TaskStats{}, err
	}
	return v.(entity.TaskStats), nil
}

// AssignableEmployees lists users sharing a department with the manager.
func (q *QueryService) AssignableEmployees(ctx context.Context, manager entity.Actor) ([]entity.User, error) {
	return q.store.SameDepartmentUsers(ctx, manager.ID)
}

// attach fills siblings, user refs and departments in place.
func (q *QueryService) attach(ctx context.Context, rows []entity.Task) error {
	if len(rows) == 0 {
		return nil
	}

	var groupIDs []string
	seenGroup := map[string]bool{}
	for _, t := range rows {
		if t.IsGroup() && !seenGroup[*t.GroupID] {
			seenGroup[*t.GroupID] = true
			groupIDs = append(groupIDs, *t.GroupID)
		}
	}

	groupRows, err := q.store.ListGroupRows(ctx, groupIDs)
	if err != nil {
		return err
	}
	byGroup := make(map[string][]entity.Task, len(groupIDs))
	for _, t := range groupRows {
		byGroup[*t.GroupID] = append(byGroup[*t.GroupID], t)
	}

	var userIDs, deptIDs []int64
	addUser := func(t entity.Task) {
		userIDs = append(userIDs, t.AssignedTo, t.AssignedBy)
	}
	for _, t := range rows {
		addUser(t)
		if t.DepartmentID != nil {
			deptIDs = append(deptIDs, *t.DepartmentID)
		}
	}
	for _, t := range groupRows {
		addUser(t)
	}

	users, err := q.store.GetUserRefs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return err
	}
	depts, err := q.store.GetDepartments(ctx, uniqueIDs(deptIDs))
	if err != nil {
		return err
	}

	ref := func(id int64) *entity.UserRef {
		if u, ok := users[id]; ok {
			return &u
		}
		return nil
	}

	for i := range rows {
		t := &rows[i]
		t.Assignee = ref(t.AssignedTo)
		t.Assigner = ref(t.AssignedBy)
		if t.DepartmentID != nil {
			if d, ok := depts[*t.DepartmentID]; ok {
				t.Department = &d
			}
		}

		t.OtherGroupAssignees = []entity.Task{}
		if !t.IsGroup() {
			continue
		}
		for _, sib := range byGroup[*t.GroupID] {
			if sib.ID == t.ID {
				continue
			}
			sib.Assignee = ref(sib.AssignedTo)
			t.OtherGroupAssignees = append(t.OtherGroupAssignees, sib)
		}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func loadTask(ctx context.Context, st storage.Store, id int64) (*entity.Task, error) {
	task, err := st.GetTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return task, err
}

// invalidateStats drops the cached counters touched by the given rows.
func invalidateStats(ctx context.Context, c *cache.Cache, logger *zap.Logger, tasks ...entity.Task) {
	var keys []string
	seen := map[string]bool{}
	for _, t := range tasks {
		for _, k := range []string{cache.ManagerStatsKey(t.AssignedBy), cache.EmployeeStatsKey(t.AssignedTo)} {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("invalidating stats cache", zap.Strings("keys", keys), zap.Error(err))
	}
}
