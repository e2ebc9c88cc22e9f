package entity

const TaskPageSize = 10

const NotificationPageSize = 15

type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

func NewPage[T any](data []T, total, page, perPage int) Page[T] {
	if data == nil {
		data = []T{}
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return Page[T]{Data: data, Total: total, Page: page, PerPage: perPage, LastPage: last}
}

// Offset converts a 1-based page number into a row offset.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
