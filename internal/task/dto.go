package task

import (
	"errors"
	"time"
)

// AssignTaskDTO assigns the same task to one or more users. Each user
// gets their own row.
type AssignTaskDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AllotmentID *string    `json:"allotment_id,omitempty"`
	UserIDs     []string   `json:"user_ids"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (dto AssignTaskDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if len(dto.UserIDs) == 0 {
		return errors.New("at least one assignee is required")
	}
	seen := make(map[string]struct{}, len(dto.UserIDs))
	for _, id := range dto.UserIDs {
		if id == "" {
			return errors.New("assignee id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return errors.New("duplicate assignee")
		}
		seen[id] = struct{}{}
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if !ValidStatus(dto.Status) {
		return ErrInvalidStatus
	}
	return nil
}
