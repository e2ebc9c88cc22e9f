package system

import (
	"errors"
	"reflect"
	"strings"

	"teamtask/component"

	"github.com/go-playground/validator/v10"
)

// CreateTaskInput is one manager submission. AssignedTo fans out into one row
// per id.
type CreateTaskInput struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description *string            `json:"description"`
	Priority    component.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *component.Date    `json:"due_date"`
	TaskType    component.TaskType `json:"task_type" validate:"required,oneof=individual group"`
	AssignedTo  []int64            `json:"assigned_to" validate:"required,min=1"`
}

// UpdateTaskInput patches a single row. Nil fields are left alone; a
// description or due date is removed with its Clear flag.
type UpdateTaskInput struct {
	Title            *string             `json:"title" validate:"omitnil,required,max=255"`
	Description      *string             `json:"description"`
	ClearDescription bool                `json:"clear_description"`
	Priority         *component.Priority `json:"priority" validate:"omitnil,oneof=low medium high"`
	DueDate          *component.Date     `json:"due_date"`
	ClearDueDate     bool                `json:"clear_due_date"`
	AssignedTo       *int64              `json:"assigned_to" validate:"omitnil,gt=0"`
}

type UpdateStatusInput struct {
	Status component.Status `json:"status" validate:"required,oneof=pending in_progress completed"`
}

var fieldMessages = map[string]string{
	"title.required":       "The task title is required.",
	"title.max":            "The title may not be greater than 255 characters.",
	"priority.oneof":       "Invalid priority level selected.",
	"due_date.after":       "The due date must be a future date.",
	"task_type.required":   "Please select a task type.",
	"task_type.oneof":      "Invalid task type selected.",
	"assigned_to.required": "Please select an employee to assign the task.",
	"assigned_to.min":      "Please select at least one employee.",
	"assigned_to.gt":       "Selected employee does not exist.",
	"status.required":      "Please select a status.",
	"status.oneof":         "Invalid status selected.",
	"name.required":        "The name field is required.",
	"email.required":       "The email field is required.",
	"email.email":          "The email must be a valid email address.",
	"password.required":    "The password field is required.",
	"password.min":         "The password must be at least 8 characters.",
}

const (
	msgEmployeesMissing  = "One of the selected employees does not exist."
	msgEmployeeMissing   = "Selected employee does not exist."
	msgIndividualOneOnly = "Individual tasks must be assigned to exactly one employee."
	msgGroupAtLeastTwo   = "Group tasks require at least two employees."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the tag rules on in and converts failures into a
// ValidationError. It never returns a nil *ValidationError inside a non-nil
// error.
func checkStruct(in interface{}) *ValidationError {
	verr := NewValidationError()
	err := validate.Struct(in)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("input", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		msg, ok := fieldMessages[field+"."+fe.Tag()]
		if !ok {
			msg = "The " + strings.ReplaceAll(field, "_", " ") + " field is invalid."
		}
		verr.Add(field, msg)
	}
	return verr
}
