package models

import "gorm.io/gorm"

// Company is read-only reference data; coating suppliers are companies with
// IsSupplier set.
type Company struct {
	ID         int    `gorm:"primary_key" json:"id"`
	Name       string `gorm:"size:200;not null" json:"name"`
	NameJp     string `gorm:"size:200" json:"name_jp"`
	IsSupplier *bool  `gorm:"not null;default:false" json:"is_supplier"`
}

func GetAllSuppliers(tx *gorm.DB) ([]*Company, error) {
	var companies []*Company
	if err := tx.Where("is_supplier = ?", true).Order("id ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (c *Company) DisplayName() string {
	if c.NameJp != "" {
		return c.NameJp
	}
	return c.Name
}
