package system

import (
	"net/http"
	"strconv"

	"teamtask/component"
	"teamtask/entity"
)

func filtersFrom(r *http.Request, withAssignee bool) TaskFilters {
	q := r.URL.Query()
	f := TaskFilters{
		Status:   component.Status(q.Get("status")),
		Priority: component.Priority(q.Get("priority")),
	}
	if withAssignee {
		f.AssignedTo, _ = strconv.ParseInt(q.Get("assigned_to"), 10, 64)
	}
	return f
}

// ManagerTasks renders the manager's board: the deduplicated listing, the
// counters and the employees they can assign to.
func (h *Handler) ManagerTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	filters := filtersFrom(r, true)

	tasks, err := h.Queries.ListAssignedBy(ctx, actor, filters, pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.Queries.ManagerStats(ctx, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employees, err := h.Queries.AssignableEmployees(ctx, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":     tasks,
		"stats":     stats,
		"employees": employees,
		"filters":   filters,
	})
}

func (h *Handler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	var in CreateTaskInput
	if !decodeBody(w, r, &in) {
		return
	}

	tasks, err := h.Assignments.CreateTaskBatch(r.Context(), actor, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task(s) assigned successfully!",
		"tasks":   tasks,
	})
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, err := h.Queries.GetTask(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in UpdateTaskInput
	if !decodeBody(w, r, &in) {
		return
	}

	task, err := h.Assignments.UpdateTask(r.Context(), actor, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully!",
		"task":    task,
	})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Assignments.DeleteTask(r.Context(), actor, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted successfully!")
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in UpdateStatusInput
	if !decodeBody(w, r, &in) {
		return
	}

	task, err := h.Assignments.UpdateStatus(r.Context(), actor, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task status updated!",
		"task":    task,
	})
}

func (h *Handler) AssignableEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	users, err := h.Queries.AssignableEmployees(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"employees": users})
}

func (h *Handler) ManagerStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	stats, err := h.Queries.ManagerStats(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) EmployeeTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	filters := filtersFrom(r, false)

	tasks, err := h.Queries.ListAssignedTo(ctx, actor, filters, pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.Queries.EmployeeStats(ctx, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":   tasks,
		"stats":   stats,
		"filters": filters,
	})
}

func (h *Handler) EmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	stats, err := h.Queries.EmployeeStats(ctx, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recent, err := h.Queries.RecentAssigned(ctx, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recent == nil {
		recent = []entity.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_stats":   stats,
		"recent_tasks": recent,
	})
}
