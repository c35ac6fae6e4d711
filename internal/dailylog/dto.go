package dailylog

import (
	"errors"
	"math"
	"time"
)

type CreateLogDTO struct {
	TaskID     string    `json:"task_id"`
	LogDate    time.Time `json:"log_date"`
	HoursSpent float64   `json:"hours_spent"`
	Notes      string    `json:"notes"`
}

func (dto CreateLogDTO) Validate() error {
	if dto.TaskID == "" {
		return errors.New("task id is required")
	}
	if dto.LogDate.IsZero() {
		return errors.New("log date is required")
	}
	if math.IsNaN(dto.HoursSpent) || math.IsInf(dto.HoursSpent, 0) {
		return ErrInvalidHours
	}
	if dto.HoursSpent <= 0 || dto.HoursSpent > 24 {
		return ErrInvalidHours
	}
	return nil
}
