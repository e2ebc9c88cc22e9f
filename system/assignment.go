package system

import (
	"context"
	"strings"

	"teamtask/cache"
	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService creates, edits and removes task rows.
type AssignmentService struct {
	store    storage.Store
	cache    *cache.Cache
	notifier *Notifier
	clock    component.Clock
	logger   *zap.Logger
}

func NewAssignmentService(store storage.Store, c *cache.Cache, notifier *Notifier, clock component.Clock, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{store: store, cache: c, notifier: notifier, clock: clock, logger: logger}
}

// newGroupID returns 32 lowercase hex characters.
func newGroupID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateTaskBatch fans one submission out into a row per assignee. Rows and
// their task_assigned notifications commit together or not at all.
func (s *AssignmentService) CreateTaskBatch(ctx context.Context, creator entity.Actor, in CreateTaskInput) ([]entity.Task, error) {
	if err := authorize(creator, AbilityCreate, nil); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateCreate(ctx, in); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = component.Medium
	}

	var (
		created []entity.Task
		notes   []*entity.Notification
	)
	err := s.store.WithinTx(ctx, func(st storage.Store) error {
		deptID, err := st.FirstDepartmentID(ctx, creator.ID)
		if err != nil {
			return err
		}

		var groupID *string
		if len(in.AssignedTo) > 1 {
			g := newGroupID()
			groupID = &g
		}

		for _, assignee := range in.AssignedTo {
			task := entity.Task{
				Title:        in.Title,
				Description:  in.Description,
				Status:       component.Pending,
				Priority:     priority,
				DueDate:      in.DueDate,
				GroupID:      groupID,
				AssignedTo:   assignee,
				AssignedBy:   creator.ID,
				DepartmentID: deptID,
			}
			if err := st.CreateTask(ctx, &task); err != nil {
				return err
			}
			note, err := s.notifier.notifyAssigned(ctx, st, &task)
			if err != nil {
				return err
			}
			created = append(created, task)
			notes = append(notes, note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tasksCreated.Add(float64(len(created)))
	invalidateStats(ctx, s.cache, s.logger, created...)
	s.notifier.dispatch(ctx, notes...)

	s.logger.Info("tasks assigned",
		zap.Int64("assigned_by", creator.ID),
		zap.Int("rows", len(created)),
		zap.Bool("group", len(created) > 1))
	return created, nil
}

func (s *AssignmentService) validateCreate(ctx context.Context, in CreateTaskInput) error {
	verr := checkStruct(in)

	if in.DueDate != nil && !in.DueDate.After(s.clock.Now()) {
		verr.Add("due_date", fieldMessages["due_date.after"])
	}

	count := len(in.AssignedTo)
	if in.TaskType == component.Individual && count > 1 {
		verr.Add("assigned_to", msgIndividualOneOnly)
	}
	if in.TaskType == component.Group && count < 2 {
		verr.Add("assigned_to", msgGroupAtLeastTwo)
	}

	if count > 0 {
		missing, err := s.store.MissingUserIDs(ctx, in.AssignedTo)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			verr.Add("assigned_to", msgEmployeesMissing)
		}
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

// UpdateTask patches a single row. Group siblings keep their own values.
func (s *AssignmentService) UpdateTask(ctx context.Context, actor entity.Actor, id int64, in UpdateTaskInput) (*entity.Task, error) {
	task, err := loadTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, AbilityUpdate, task); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	verr := checkStruct(in)
	if in.AssignedTo != nil && *in.AssignedTo > 0 {
		missing, err := s.store.MissingUserIDs(ctx, []int64{*in.AssignedTo})
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			verr.Add("assigned_to", msgEmployeeMissing)
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	patch := storage.TaskPatch{
		Title:            in.Title,
		Description:      in.Description,
		ClearDescription: in.ClearDescription,
		Priority:         in.Priority,
		DueDate:          in.DueDate,
		ClearDue:         in.ClearDueDate,
		AssignedTo:       in.AssignedTo,
	}
	if err := s.store.UpdateTask(ctx, id, patch); err != nil {
		return nil, err
	}

	updated, err := loadTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	invalidateStats(ctx, s.cache, s.logger, *task, *updated)
	return updated, nil
}

// UpdateStatus moves the assignee's own row and tells the assigner, in one
// transaction.
func (s *AssignmentService) UpdateStatus(ctx context.Context, actor entity.Actor, id int64, in UpdateStatusInput) (*entity.Task, error) {
	task, err := loadTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, AbilityUpdateStatus, task); err != nil {
		return nil, err
	}
	if verr := checkStruct(in); !verr.Empty() {
		return nil, verr
	}

	var (
		updated *entity.Task
		note    *entity.Notification
	)
	err = s.store.WithinTx(ctx, func(st storage.Store) error {
		current, err := st.GetTask(ctx, id)
		if err != nil {
			return err
		}
		oldStatus := current.Status
		if err := st.UpdateTaskStatus(ctx, id, in.Status); err != nil {
			return err
		}
		fresh, err := st.GetTask(ctx, id)
		if err != nil {
			return err
		}
		updated = fresh

		note, err = s.notifier.notifyStatusChanged(ctx, st, updated, oldStatus, in.Status)
		return err
	})
	if err != nil {
		return nil, err
	}

	statusChanges.WithLabelValues(string(in.Status)).Inc()
	invalidateStats(ctx, s.cache, s.logger, *updated)
	s.notifier.dispatch(ctx, note)
	return updated, nil
}

// DeleteTask removes one row only.
func (s *AssignmentService) DeleteTask(ctx context.Context, actor entity.Actor, id int64) error {
	task, err := loadTask(ctx, s.store, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, AbilityDelete, task); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	invalidateStats(ctx, s.cache, s.logger, *task)
	return nil
}
