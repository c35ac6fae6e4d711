package allotment

import (
	"errors"
	"time"
)

type CreateAllotmentDTO struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TargetHours  float64    `json:"target_hours"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DepartmentID *string    `json:"department_id,omitempty"`
}

// Validate rejects bad input before anything is written. An end date on
// or before the start date is invalid.
func (dto CreateAllotmentDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.TargetHours <= 0 {
		return errors.New("target hours must be positive")
	}
	if dto.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if dto.EndDate != nil && !dto.EndDate.After(dto.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

type UpdateAllotmentDTO struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TargetHours  float64    `json:"target_hours"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DepartmentID *string    `json:"department_id,omitempty"`
}

func (dto UpdateAllotmentDTO) Validate() error {
	return CreateAllotmentDTO(dto).Validate()
}
