package component

import "strings"

type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

var Statuses = []Status{Pending, InProgress, Completed}

func (s Status) Valid() bool {
	switch s {
	case Pending, InProgress, Completed:
		return true
	}
	return false
}

// Label renders the status for people, e.g. "in progress".
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case Low, Medium, High:
		return true
	}
	return false
}

// TaskType is only meaningful on submission; rows never store it.
type TaskType string

const (
	Individual TaskType = "individual"
	Group      TaskType = "group"
)
