package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
	"gorm.io/gorm"
)

// TeflonSnapshot is one bulk reload of everything the status engine reads:
// master rows, the full coating log, and the name lookup tables. The same
// shape comes back on every call; the engine does not care how it was
// fetched.
type TeflonSnapshot struct {
	Molds     []*Mold
	Logs      []*TeflonLog
	Employees []*Employee
	Suppliers []*Company
}

// Datastore is the engine's view of the remote store: a bulk reload, two
// append targets, and a partial master update for the legacy cache refresh.
// The gorm implementation below is production; workflow tests supply fakes.
type Datastore interface {
	LoadTeflonSnapshot(ctx context.Context) (*TeflonSnapshot, error)
	AppendTeflonLog(ctx context.Context, log *TeflonLog) error
	AppendLocationLog(ctx context.Context, log *MoldLocationLog) error
	UpdateMoldFields(ctx context.Context, moldId string, fields map[string]interface{}) error
}

type GormDatastore struct {
	DB *gorm.DB
}

func NewGormDatastore(db *gorm.DB) *GormDatastore {
	return &GormDatastore{DB: db}
}

func (s *GormDatastore) LoadTeflonSnapshot(ctx context.Context) (*TeflonSnapshot, error) {
	tx := s.DB.WithContext(ctx)

	molds, err := GetAllMolds(tx)
	if err != nil {
		return nil, err
	}
	logs, err := GetAllTeflonLogs(tx)
	if err != nil {
		return nil, err
	}
	employees, err := GetAllEmployees(tx)
	if err != nil {
		return nil, err
	}
	suppliers, err := GetAllSuppliers(tx)
	if err != nil {
		return nil, err
	}

	return &TeflonSnapshot{
		Molds:     molds,
		Logs:      logs,
		Employees: employees,
		Suppliers: suppliers,
	}, nil
}

func (s *GormDatastore) AppendTeflonLog(ctx context.Context, log *TeflonLog) error {
	return s.DB.WithContext(ctx).Create(log).Error
}

func (s *GormDatastore) AppendLocationLog(ctx context.Context, log *MoldLocationLog) error {
	return s.DB.WithContext(ctx).Create(log).Error
}

func (s *GormDatastore) UpdateMoldFields(ctx context.Context, moldId string, fields map[string]interface{}) error {
	return s.DB.WithContext(ctx).Model(&Mold{}).Where("mold_id = ?", moldId).Updates(fields).Error
}

// TeflonFallbackFact is the minimal audit record written to Redis when a
// remote append fails. Never read back as a data source; it exists so the
// fact survives for manual recovery.
type TeflonFallbackFact struct {
	MoldId     string    `json:"mold_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func RecordTeflonFallback(moldId string, status TeflonStatus, occurredAt time.Time) error {
	fact := TeflonFallbackFact{
		MoldId:     moldId,
		Status:     string(status),
		OccurredAt: occurredAt,
	}
	key := fmt.Sprintf("teflon_fallback:%s:%d", moldId, occurredAt.UnixNano())
	return config.SetRedisObject(key, &fact, 0)
}
