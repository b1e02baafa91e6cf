package models

import "gorm.io/gorm"

// Employee is read-only reference data for rendering requester/handler names.
type Employee struct {
	ID     int    `gorm:"primary_key" json:"id"`
	Name   string `gorm:"size:100;not null" json:"name"`
	NameJp string `gorm:"size:100" json:"name_jp"`
	NameVi string `gorm:"size:100" json:"name_vi"`
}

func GetAllEmployees(tx *gorm.DB) ([]*Employee, error) {
	var employees []*Employee
	if err := tx.Order("id ASC").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// DisplayName prefers the Japanese reading, matching the panel's default
// locale.
func (e *Employee) DisplayName() string {
	if e.NameJp != "" {
		return e.NameJp
	}
	return e.Name
}
