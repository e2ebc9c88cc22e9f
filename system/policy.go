package system

import "teamtask/entity"

type Ability string

const (
	AbilityView         Ability = "view"
	AbilityUpdate       Ability = "update"
	AbilityCreate       Ability = "create"
	AbilityDelete       Ability = "delete"
	AbilityUpdateStatus Ability = "updateStatus"
)

// Can evaluates one ability for actor against a single row. Group siblings
// are never consulted. task may be nil for AbilityCreate.
func Can(actor entity.Actor, ability Ability, task *entity.Task) bool {
	if ability == AbilityCreate {
		return actor.IsManager()
	}
	if task == nil {
		return false
	}

	assigner := actor.IsManager() && task.AssignedBy == actor.ID
	assignee := task.AssignedTo == actor.ID

	switch ability {
	case AbilityView, AbilityUpdate:
		return assigner || assignee
	case AbilityDelete:
		return assigner
	case AbilityUpdateStatus:
		return assignee
	}
	return false
}

func authorize(actor entity.Actor, ability Ability, task *entity.Task) error {
	if !Can(actor, ability, task) {
		return ErrForbidden
	}
	return nil
}
