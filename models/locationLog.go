package models

import (
	"time"
)

type LocationAction string

const (
	LocationActionCheckout LocationAction = "Checkout"
	LocationActionCheckin  LocationAction = "Checkin"
)

// MoldLocationLog is the side-effect record written alongside a coating
// transition: checkout when a mold is sent to the supplier, checkin when it
// comes back. Write-only from this engine; the location panel owns reads.
type MoldLocationLog struct {
	ID            int            `gorm:"primary_key" json:"id"`
	MoldId        string         `gorm:"index;size:50;not null" json:"mold_id"`
	Action        LocationAction `gorm:"type:enum('Checkout','Checkin');not null" json:"action"`
	Location      string         `gorm:"size:200" json:"location"`
	HandledBy     int            `json:"handled_by"`
	CorrelationId string         `gorm:"size:40;index" json:"correlation_id"`
	Notes         string         `gorm:"type:text" json:"notes"`
	OccurredAt    time.Time      `gorm:"not null" json:"occurred_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
