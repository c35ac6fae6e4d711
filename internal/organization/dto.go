package organization

import "errors"

type CreateOrganizationDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto CreateOrganizationDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("organization name is required")
	}
	if len(dto.Name) > 200 {
		return errors.New("organization name must be less than 200 characters")
	}
	return nil
}

type UpdateOrganizationDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto UpdateOrganizationDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("organization name is required")
	}
	return nil
}

type DepartmentDTO struct {
	Name string `json:"name"`
}

func (dto DepartmentDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("department name is required")
	}
	if len(dto.Name) > 200 {
		return errors.New("department name must be less than 200 characters")
	}
	return nil
}
