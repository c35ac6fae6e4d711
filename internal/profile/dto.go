package profile

import "errors"

// UpdateNameDTO is the payload for a user renaming themselves.
type UpdateNameDTO struct {
	FullName string `json:"full_name"`
}

func (dto UpdateNameDTO) Validate() error {
	if dto.FullName == "" {
		return errors.New("full name is required")
	}
	if len(dto.FullName) > 200 {
		return errors.New("full name must be less than 200 characters")
	}
	return nil
}

// SetAvailabilityDTO toggles the caller's availability.
type SetAvailabilityDTO struct {
	Availability string `json:"availability"`
}

func (dto SetAvailabilityDTO) Validate() error {
	if dto.Availability != AvailabilityAvailable && dto.Availability != AvailabilityUnavailable {
		return ErrInvalidAvailability
	}
	return nil
}

// SetDepartmentDTO is the admin payload for moving a member between
// departments. A null department clears the assignment.
type SetDepartmentDTO struct {
	DepartmentID *string `json:"department_id"`
}

// SetWorkingHoursDTO sets a member's monthly working-hours target.
type SetWorkingHoursDTO struct {
	WorkingHours float64 `json:"working_hours"`
}

func (dto SetWorkingHoursDTO) Validate() error {
	if dto.WorkingHours <= 0 {
		return errors.New("working hours must be positive")
	}
	if dto.WorkingHours > 744 {
		return errors.New("working hours cannot exceed hours in a month")
	}
	return nil
}
