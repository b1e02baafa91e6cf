package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"bitbucket.org/mmdatafocus/moldtrack_backend/utils"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

const (
	teflonLogStore    = "teflon_logs"
	locationLogStore  = "mold_location_logs"
	moldMasterStore   = "molds"
	moldLockKeyPrefix = "teflon:mold:"
)

type SubmitCoatingInput struct {
	MoldId        string          `json:"mold_id" validate:"required"`
	TargetStatus  string          `json:"target_status" validate:"required"`
	SupplierId    int             `json:"supplier_id" validate:"required,gt=0"`
	CoatingType   string          `json:"coating_type"`
	Reason        string          `json:"reason"`
	Cost          decimal.Decimal `json:"cost"`
	RequestedBy   int             `json:"requested_by"`
	RequestedDate string          `json:"requested_date"`
	ExpectedDate  string          `json:"expected_date"`
	Location      string          `json:"location"`
	Notes         string          `json:"notes"`
}

type ConfirmCompletionInput struct {
	MoldId       string           `json:"mold_id" validate:"required"`
	ReceivedDate string           `json:"received_date" validate:"required"`
	ReceivedBy   int              `json:"received_by"`
	SupplierId   int              `json:"supplier_id"`
	CoatingType  string           `json:"coating_type"`
	Cost         *decimal.Decimal `json:"cost"`
	Quality      string           `json:"quality"`
	Location     string           `json:"location"`
	Notes        string           `json:"notes"`
}

// SubmitForCoating appends one coating-request log row and, when the target
// status means the mold is physically leaving (processing), a correlated
// checkout record. Validation failures happen before any record is
// constructed; the in-memory snapshot is only touched after the store
// acknowledges the append.
func (e *TeflonEngine) SubmitForCoating(ctx context.Context, in SubmitCoatingInput) (*models.TeflonLog, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationErrorFrom(err)
	}
	target, ok := models.ParseTeflonStatusKey(in.TargetStatus)
	if !ok {
		target, ok = models.ResolveTeflonStatus(in.TargetStatus)
	}
	if !ok {
		return nil, utils.NewValidationError("target_status", "unknown status "+in.TargetStatus)
	}
	switch target {
	case models.TeflonStatusPending, models.TeflonStatusApproved, models.TeflonStatusProcessing:
	default:
		return nil, utils.NewValidationError("target_status", "submit target must be pending, approved or processing")
	}

	release, err := e.lockMold(ctx, in.MoldId)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	requestedDate := in.RequestedDate
	if requestedDate == "" {
		requestedDate = now.Format("2006/01/02")
	}

	logRow := &models.TeflonLog{
		ID:            e.nextLogId(),
		MoldId:        in.MoldId,
		Status:        target.LabelJP(),
		CoatingType:   in.CoatingType,
		Reason:        in.Reason,
		Cost:          in.Cost,
		Notes:         in.Notes,
		RequestedBy:   in.RequestedBy,
		SupplierId:    in.SupplierId,
		RequestedDate: requestedDate,
		ExpectedDate:  in.ExpectedDate,
		UpdatedDate:   now.Format("2006/01/02"),
		CorrelationId: uuid.NewString(),
		CreatedAt:     now,
	}
	if target == models.TeflonStatusProcessing {
		logRow.SentBy = in.RequestedBy
		logRow.SentDate = requestedDate
	}

	if err := e.store.AppendTeflonLog(ctx, logRow); err != nil {
		e.recordFallback(in.MoldId, target, now)
		return nil, &utils.RemoteAppendError{Store: teflonLogStore, Err: err}
	}

	// Checkout side record only when the mold is actively sent out.
	if target == models.TeflonStatusProcessing {
		side := &models.MoldLocationLog{
			MoldId:        in.MoldId,
			Action:        models.LocationActionCheckout,
			Location:      in.Location,
			HandledBy:     in.RequestedBy,
			CorrelationId: logRow.CorrelationId,
			Notes:         in.Notes,
			OccurredAt:    now,
		}
		if err := e.store.AppendLocationLog(ctx, side); err != nil {
			// The coating log row is already durable; a lost checkout record
			// degrades the location panel, not the status engine.
			config.LogError(e.logger, "workflow", "SubmitForCoating", "append checkout record", side, err)
		}
	}

	e.applyLog(logRow, nil)
	e.logTransition("teflon.submit", logRow, target)
	return logRow, nil
}

// ConfirmCompletion appends a completed log row carrying forward supplier,
// coating type and cost from the most recent prior log (same winner rule as
// reconciliation), writes a checkin side record, and refreshes the master
// legacy cache field.
func (e *TeflonEngine) ConfirmCompletion(ctx context.Context, in ConfirmCompletionInput) (*models.TeflonLog, error) {
	if err := validate.Struct(in); err != nil {
		return nil, validationErrorFrom(err)
	}

	release, err := e.lockMold(ctx, in.MoldId)
	if err != nil {
		return nil, err
	}
	defer release()

	prior := e.priorLog(in.MoldId)

	supplierId := in.SupplierId
	coatingType := in.CoatingType
	cost := decimal.Zero
	if in.Cost != nil {
		cost = *in.Cost
	}
	if prior != nil {
		if supplierId == 0 {
			supplierId = prior.SupplierId
		}
		if coatingType == "" {
			coatingType = prior.CoatingType
		}
		if in.Cost == nil {
			cost = prior.Cost
		}
	}

	now := time.Now()
	logRow := &models.TeflonLog{
		ID:            e.nextLogId(),
		MoldId:        in.MoldId,
		Status:        models.TeflonStatusCompleted.LabelJP(),
		CoatingType:   coatingType,
		Cost:          cost,
		Quality:       in.Quality,
		Notes:         in.Notes,
		ReceivedBy:    in.ReceivedBy,
		SupplierId:    supplierId,
		ReceivedDate:  in.ReceivedDate,
		UpdatedDate:   now.Format("2006/01/02"),
		CorrelationId: uuid.NewString(),
		CreatedAt:     now,
	}
	if prior != nil {
		logRow.RequestedBy = prior.RequestedBy
		logRow.RequestedDate = prior.RequestedDate
		logRow.SentDate = prior.SentDate
		logRow.ExpectedDate = prior.ExpectedDate
	}

	if err := e.store.AppendTeflonLog(ctx, logRow); err != nil {
		e.recordFallback(in.MoldId, models.TeflonStatusCompleted, now)
		return nil, &utils.RemoteAppendError{Store: teflonLogStore, Err: err}
	}

	side := &models.MoldLocationLog{
		MoldId:        in.MoldId,
		Action:        models.LocationActionCheckin,
		Location:      in.Location,
		HandledBy:     in.ReceivedBy,
		CorrelationId: logRow.CorrelationId,
		Notes:         in.Notes,
		OccurredAt:    now,
	}
	if err := e.store.AppendLocationLog(ctx, side); err != nil {
		config.LogError(e.logger, "workflow", "ConfirmCompletion", "append checkin record", side, err)
	}

	// Cache refresh, not the source of truth. A failure here just means the
	// legacy field lags until the next completion; the log row already won.
	cacheFields := map[string]interface{}{
		"teflon_coating": models.TeflonStatusCompleted.LabelJP(),
	}
	if err := e.store.UpdateMoldFields(ctx, in.MoldId, cacheFields); err != nil {
		config.LogError(e.logger, "workflow", "ConfirmCompletion", "refresh master cache", in.MoldId, err)
		cacheFields = nil
	}

	e.applyLog(logRow, cacheFields)
	e.logTransition("teflon.complete", logRow, models.TeflonStatusCompleted)
	return logRow, nil
}

// lockMold serializes transitions per mold across instances so two
// concurrent submits cannot allocate the same log id. No-op without a
// locker (tests, single-instance tools).
func (e *TeflonEngine) lockMold(ctx context.Context, moldId string) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	lock, err := e.locker.Obtain(ctx, moldLockKeyPrefix+moldId, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 25),
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

func (e *TeflonEngine) nextLogId() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maxLogId + 1
}

// priorLog winner-selects the most recent existing log for the mold from the
// in-memory snapshot.
func (e *TeflonEngine) priorLog(moldId string) *models.TeflonLog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapshot == nil {
		return nil
	}
	var group []*models.TeflonLog
	for _, l := range e.snapshot.Logs {
		if l.MoldId == moldId {
			group = append(group, l)
		}
	}
	if len(group) == 0 {
		return nil
	}
	return selectTeflonWinner(group)
}

// applyLog is the optimistic in-memory update after the store acknowledged:
// append the new row, optionally patch the mold master cache fields, then
// rebuild. Never called on append failure.
func (e *TeflonEngine) applyLog(logRow *models.TeflonLog, moldFields map[string]interface{}) {
	e.mu.Lock()
	if e.snapshot != nil {
		e.snapshot.Logs = append(e.snapshot.Logs, logRow)
		if moldFields != nil {
			for _, m := range e.snapshot.Molds {
				if m.MoldId == logRow.MoldId {
					if v, ok := moldFields["teflon_coating"].(string); ok {
						m.TeflonCoating = v
					}
					break
				}
			}
		}
	}
	e.mu.Unlock()
	e.rebuild()
}

func (e *TeflonEngine) recordFallback(moldId string, status models.TeflonStatus, occurredAt time.Time) {
	if e.fallback == nil {
		return
	}
	if err := e.fallback(moldId, status, occurredAt); err != nil {
		config.LogError(e.logger, "workflow", "recordFallback", "write fallback fact", moldId, err)
	}
}

func (e *TeflonEngine) logTransition(event string, logRow *models.TeflonLog, status models.TeflonStatus) {
	e.logger.WithFields(logrus.Fields{
		"mold_id":     logRow.MoldId,
		"log_id":      logRow.ID,
		"status":      status,
		"supplier_id": logRow.SupplierId,
	}).Info(event)
}

func validationErrorFrom(err error) error {
	fields := utils.ProcessValidationErrors(err)
	for field, message := range fields {
		return utils.NewValidationError(field, message)
	}
	return utils.NewValidationError("input", err.Error())
}
