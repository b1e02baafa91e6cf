package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TeflonLog is one row of the append-only coating event log. ID doubles as
// the per-mold ordering key: a higher ID is a later event. Legacy imports
// may carry ID-less rows (ID assigned by the importer without meaning), so
// reconciliation falls back to the date columns for those.
//
// Date columns are deliberately text: the log has been written by three
// generations of tooling with three date encodings, and this table keeps
// whatever it was given. Parsing happens at read time in utils.
type TeflonLog struct {
	ID            int             `gorm:"primary_key" json:"id"`
	MoldId        string          `gorm:"index;size:50;not null" json:"mold_id"`
	Status        string          `gorm:"size:100" json:"status"`
	CoatingType   string          `gorm:"size:100" json:"coating_type"`
	Reason        string          `gorm:"type:text" json:"reason"`
	Cost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`
	Quality       string          `gorm:"size:100" json:"quality"`
	Notes         string          `gorm:"type:text" json:"notes"`
	RequestedBy   int             `json:"requested_by"`
	SentBy        int             `json:"sent_by"`
	ReceivedBy    int             `json:"received_by"`
	SupplierId    int             `gorm:"index" json:"supplier_id"`
	RequestedDate string          `gorm:"size:30" json:"requested_date"`
	SentDate      string          `gorm:"size:30" json:"sent_date"`
	ExpectedDate  string          `gorm:"size:30" json:"expected_date"`
	ReceivedDate  string          `gorm:"size:30" json:"received_date"`
	UpdatedDate   string          `gorm:"size:30" json:"updated_date"`
	CorrelationId string          `gorm:"size:40" json:"correlation_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeUpdate enforces the append-only invariant: corrections are new rows
// with a higher ID, never edits.
func (l *TeflonLog) BeforeUpdate(tx *gorm.DB) error {
	_ = tx
	return errors.New("teflon logs are append-only; write a new row instead")
}

func GetAllTeflonLogs(tx *gorm.DB) ([]*TeflonLog, error) {
	var logs []*TeflonLog
	if err := tx.Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
