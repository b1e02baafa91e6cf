package models

import (
	"time"

	"gorm.io/gorm"
)

// Mold is the master record for a mold or cutting die. TeflonCoating and
// TeflonStatus are legacy cache fields: whenever a TeflonLog exists for the
// mold, the log is authoritative and these may lag behind it.
type Mold struct {
	MoldId        string    `gorm:"primaryKey;size:50" json:"mold_id"`
	Name          string    `gorm:"size:200;index" json:"name"`
	Code          string    `gorm:"size:100" json:"code"`
	Location      string    `gorm:"size:100" json:"location"`
	TeflonCoating string    `gorm:"size:100" json:"teflon_coating"`
	TeflonStatus  string    `gorm:"size:100" json:"teflon_status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetAllMolds(tx *gorm.DB) ([]*Mold, error) {
	var molds []*Mold
	if err := tx.Order("mold_id ASC").Find(&molds).Error; err != nil {
		return nil, err
	}
	return molds, nil
}

func GetMoldById(tx *gorm.DB, moldId string) (*Mold, error) {
	var mold Mold
	if err := tx.Where("mold_id = ?", moldId).First(&mold).Error; err != nil {
		return nil, err
	}
	return &mold, nil
}
