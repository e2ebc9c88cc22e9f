package system

import (
	"context"
	"regexp"
	"testing"

	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"
	"teamtask/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskBatch_IndividualSingleRow(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "employee", entity.RoleEmployee)

	rows, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:      "Write report",
		TaskType:   component.Individual,
		AssignedTo: []int64{e.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Nil(t, rows[0].GroupID)
	assert.Equal(t, component.Pending, rows[0].Status)
	assert.Equal(t, component.Medium, rows[0].Priority)
	assert.Equal(t, m.ID, rows[0].AssignedBy)
	assert.Nil(t, rows[0].DepartmentID)
	assert.Equal(t, 1, f.countRows(t))
}

func TestCreateTaskBatch_IndividualWrongCardinality(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "e1", entity.RoleEmployee)
	e2 := testutil.CreateUser(t, f.store, "e2", entity.RoleEmployee)

	for _, ids := range [][]int64{{e1.ID, e2.ID}, {}} {
		_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
			Title:      "Write report",
			TaskType:   component.Individual,
			AssignedTo: ids,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.NotEmpty(t, verr.Fields["assigned_to"])
	}
	assert.Equal(t, 0, f.countRows(t))
}

func TestCreateTaskBatch_GroupSharesOneGroupID(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "e1")
	e2 := testutil.CreateUser(t, f.store, "e2")
	e3 := testutil.CreateUser(t, f.store, "e3")
	dept := testutil.CreateDepartment(t, f.store, "Engineering", m)

	rows, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:       "Plan sprint",
		Description: strPtr("all hands"),
		Priority:    component.High,
		DueDate:     tomorrow(),
		TaskType:    component.Group,
		AssignedTo:  []int64{e1.ID, e2.ID, e3.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0].GroupID)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), *rows[0].GroupID)

	assignees := map[int64]bool{}
	for _, r := range rows {
		stored, err := f.store.GetTask(context.Background(), r.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.GroupID)
		assert.Equal(t, *rows[0].GroupID, *stored.GroupID)
		assert.Equal(t, "Plan sprint", stored.Title)
		assert.Equal(t, "all hands", *stored.Description)
		assert.Equal(t, component.High, stored.Priority)
		assert.Equal(t, tomorrow().String(), stored.DueDate.String())
		assert.Equal(t, m.ID, stored.AssignedBy)
		require.NotNil(t, stored.DepartmentID)
		assert.Equal(t, dept.ID, *stored.DepartmentID)
		assignees[stored.AssignedTo] = true
	}
	assert.Len(t, assignees, 3)
}

func TestCreateTaskBatch_GroupNeedsTwo(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:      "Plan sprint",
		TaskType:   component.Group,
		AssignedTo: []int64{e.ID},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["assigned_to"], msgGroupAtLeastTwo)
	assert.Equal(t, 0, f.countRows(t))
}

func TestCreateTaskBatch_FieldValidation(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")
	today := component.NewDate(fixedNow)

	_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:      "",
		Priority:   "urgent",
		DueDate:    &today,
		TaskType:   component.Individual,
		AssignedTo: []int64{e.ID},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The task title is required."}, verr.Fields["title"])
	assert.Equal(t, []string{"Invalid priority level selected."}, verr.Fields["priority"])
	assert.Equal(t, []string{"The due date must be a future date."}, verr.Fields["due_date"])
	assert.Equal(t, 0, f.countRows(t))
}

func TestCreateTaskBatch_UnknownAssignee(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:      "Plan sprint",
		TaskType:   component.Group,
		AssignedTo: []int64{e.ID, 999},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"One of the selected employees does not exist."}, verr.Fields["assigned_to"])
	assert.Equal(t, 0, f.countRows(t))
}

func TestCreateTaskBatch_RequiresManager(t *testing.T) {
	f := newFixture(t)
	e1 := testutil.CreateUser(t, f.store, "e1", entity.RoleEmployee)
	e2 := testutil.CreateUser(t, f.store, "e2", entity.RoleEmployee)

	_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(e1), CreateTaskInput{
		Title:      "Sneaky",
		TaskType:   component.Individual,
		AssignedTo: []int64{e2.ID},
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, f.countRows(t))
}

func TestCreateTaskBatch_DuplicateAssigneesAreKept(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	rows, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title:      "Twice",
		TaskType:   component.Group,
		AssignedTo: []int64{e.ID, e.ID},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Len(t, f.notificationsFor(t, e.ID), 2)
}

// Manager M in department D assigns "Ship release" to E1 and E2; E1 starts it.
func TestShipReleaseScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "M", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "E1", entity.RoleEmployee)
	e2 := testutil.CreateUser(t, f.store, "E2", entity.RoleEmployee)
	d := testutil.CreateDepartment(t, f.store, "D", m, e1, e2)

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title:      "Ship release",
		Priority:   component.High,
		DueDate:    tomorrow(),
		TaskType:   component.Group,
		AssignedTo: []int64{e1.ID, e2.ID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, *rows[0].GroupID, *rows[1].GroupID)
	for _, r := range rows {
		assert.Equal(t, component.Pending, r.Status)
		assert.Equal(t, d.ID, *r.DepartmentID)
	}

	for _, e := range []entity.User{e1, e2} {
		notes := f.notificationsFor(t, e.ID)
		require.Len(t, notes, 1)
		assert.Equal(t, entity.TaskAssigned, notes[0].Type)
		assert.Equal(t, "New Task Assigned", notes[0].Title)
		assert.Equal(t, `You have been assigned a new task: "Ship release" by M`, notes[0].Message)
		assert.Equal(t, entity.NotifiableTask, notes[0].NotifiableType)
		assert.False(t, notes[0].Read)
	}

	row1, row2 := rows[0], rows[1]
	if row1.AssignedTo != e1.ID {
		row1, row2 = row2, row1
	}

	updated, err := f.assignments.UpdateStatus(ctx, testutil.Actor(e1), row1.ID, UpdateStatusInput{Status: component.InProgress})
	require.NoError(t, err)
	assert.Equal(t, component.InProgress, updated.Status)

	untouched, err := f.store.GetTask(ctx, row2.ID)
	require.NoError(t, err)
	assert.Equal(t, component.Pending, untouched.Status)

	managerNotes := f.notificationsFor(t, m.ID)
	require.Len(t, managerNotes, 1)
	assert.Equal(t, entity.TaskStatusChanged, managerNotes[0].Type)
	assert.Contains(t, managerNotes[0].Message, "in progress")
	assert.Contains(t, managerNotes[0].Message, "E1")
	assert.Equal(t, row1.ID, managerNotes[0].NotifiableID)
}

func TestUpdateStatus_SelfAssignedCreatesNoNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title:      "Note to self",
		TaskType:   component.Individual,
		AssignedTo: []int64{m.ID},
	})
	require.NoError(t, err)

	before := len(f.notificationsFor(t, m.ID))
	_, err = f.assignments.UpdateStatus(ctx, testutil.Actor(m), rows[0].ID, UpdateStatusInput{Status: component.Completed})
	require.NoError(t, err)
	assert.Len(t, f.notificationsFor(t, m.ID), before)
}

func TestUpdateStatus_OnlyAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Do it", TaskType: component.Individual, AssignedTo: []int64{e.ID},
	})
	require.NoError(t, err)

	_, err = f.assignments.UpdateStatus(ctx, testutil.Actor(m), rows[0].ID, UpdateStatusInput{Status: component.Completed})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.assignments.UpdateStatus(ctx, testutil.Actor(e), rows[0].ID, UpdateStatusInput{Status: "done"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Invalid status selected."}, verr.Fields["status"])

	_, err = f.assignments.UpdateStatus(ctx, testutil.Actor(e), 424242, UpdateStatusInput{Status: component.Completed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTask_DoesNotPropagateToSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "e1")
	e2 := testutil.CreateUser(t, f.store, "e2")

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Original", TaskType: component.Group, AssignedTo: []int64{e1.ID, e2.ID},
	})
	require.NoError(t, err)

	prio := component.Low
	updated, err := f.assignments.UpdateTask(ctx, testutil.Actor(m), rows[0].ID, UpdateTaskInput{
		Title:    strPtr("Renamed"),
		Priority: &prio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, component.Low, updated.Priority)

	sibling, err := f.store.GetTask(ctx, rows[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", sibling.Title)
	assert.Equal(t, component.Medium, sibling.Priority)
}

func TestUpdateTask_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")
	other := testutil.CreateUser(t, f.store, "other", entity.RoleManager)

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Original", TaskType: component.Individual, AssignedTo: []int64{e.ID},
	})
	require.NoError(t, err)

	missing := int64(777)
	_, err = f.assignments.UpdateTask(ctx, testutil.Actor(m), rows[0].ID, UpdateTaskInput{
		Title:      strPtr(""),
		AssignedTo: &missing,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The task title is required."}, verr.Fields["title"])
	assert.Equal(t, []string{"Selected employee does not exist."}, verr.Fields["assigned_to"])

	_, err = f.assignments.UpdateTask(ctx, testutil.Actor(other), rows[0].ID, UpdateTaskInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTask_ReassignAndClearDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "e1")
	e2 := testutil.CreateUser(t, f.store, "e2")

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Move me", DueDate: tomorrow(), TaskType: component.Individual, AssignedTo: []int64{e1.ID},
	})
	require.NoError(t, err)

	updated, err := f.assignments.UpdateTask(ctx, testutil.Actor(m), rows[0].ID, UpdateTaskInput{
		AssignedTo:   &e2.ID,
		ClearDueDate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, e2.ID, updated.AssignedTo)
	assert.Nil(t, updated.DueDate)
}

func TestDeleteTask_RemovesOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e1 := testutil.CreateUser(t, f.store, "e1", entity.RoleEmployee)
	e2 := testutil.CreateUser(t, f.store, "e2", entity.RoleEmployee)

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Pair", TaskType: component.Group, AssignedTo: []int64{e1.ID, e2.ID},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.assignments.DeleteTask(ctx, testutil.Actor(e1), rows[0].ID), ErrForbidden)
	require.NoError(t, f.assignments.DeleteTask(ctx, testutil.Actor(m), rows[0].ID))

	_, err = f.store.GetTask(ctx, rows[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetTask(ctx, rows[1].ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.assignments.DeleteTask(ctx, testutil.Actor(m), rows[0].ID), ErrNotFound)
}

func TestCreateTaskBatch_BlankTitleRejected(t *testing.T) {
	f := newFixture(t)
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	_, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title: "   ", TaskType: component.Individual, AssignedTo: []int64{e.ID},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The task title is required."}, verr.Fields["title"])
	assert.Zero(t, f.countRows(t))

	rows, err := f.assignments.CreateTaskBatch(context.Background(), testutil.Actor(m), CreateTaskInput{
		Title: "  Padded  ", TaskType: component.Individual, AssignedTo: []int64{e.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Padded", rows[0].Title)

	_, err = f.assignments.UpdateTask(context.Background(), testutil.Actor(m), rows[0].ID, UpdateTaskInput{Title: strPtr("\t ")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestUpdateTask_ClearDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := testutil.CreateUser(t, f.store, "manager", entity.RoleManager)
	e := testutil.CreateUser(t, f.store, "e1")

	rows, err := f.assignments.CreateTaskBatch(ctx, testutil.Actor(m), CreateTaskInput{
		Title: "Described", Description: strPtr("details"), TaskType: component.Individual, AssignedTo: []int64{e.ID},
	})
	require.NoError(t, err)

	updated, err := f.assignments.UpdateTask(ctx, testutil.Actor(m), rows[0].ID, UpdateTaskInput{Title: strPtr("Still described")})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "details", *updated.Description)

	updated, err = f.assignments.UpdateTask(ctx, testutil.Actor(m), rows[0].ID, UpdateTaskInput{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
}
