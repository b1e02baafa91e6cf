package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// TeflonState is one reconciled current-status row: exactly one per mold,
// derived from the winning log entry or the master legacy cache. Rebuilt
// from scratch on every reload and after every successful write.
type TeflonState struct {
	MoldId          string              `json:"mold_id"`
	MoldName        string              `json:"mold_name"`
	Status          models.TeflonStatus `json:"status"`
	StatusLabel     string              `json:"status_label"`
	Source          *models.TeflonLog   `json:"source,omitempty"`
	RequestedByName string              `json:"requested_by_name"`
	HandledByName   string              `json:"handled_by_name"`
	SupplierName    string              `json:"supplier_name"`
	RequestedDate   string              `json:"requested_date"`
	ExpectedDate    string              `json:"expected_date"`
	ReceivedDate    string              `json:"received_date"`
	Notes           string              `json:"notes"`

	searchBlob string
}

// TeflonEngine owns one in-memory reconciliation context: the loaded
// snapshot, the reconciled states, the status buckets and the generation
// counter. Callers construct their own instance; there is no package-level
// cache, so independent engines (one per test) cannot cross-contaminate.
type TeflonEngine struct {
	store    models.Datastore
	logger   *logrus.Logger
	locker   *redislock.Client
	fallback func(moldId string, status models.TeflonStatus, occurredAt time.Time) error

	mu        sync.RWMutex
	snapshot  *models.TeflonSnapshot
	states    []*TeflonState
	buckets   map[models.TeflonStatus][]*TeflonState
	excluded  []string
	employees map[int]string
	suppliers map[int]string
	maxLogId  int
	loaded    bool

	generation     atomic.Uint64
	reloadInFlight atomic.Bool

	syncInterval time.Duration
	triggerCh    chan string
}

type TeflonEngineOption func(*TeflonEngine)

// WithLocker enables per-mold write serialization via redislock. Optional:
// a nil locker (tests, single-instance ops tools) skips locking.
func WithLocker(locker *redislock.Client) TeflonEngineOption {
	return func(e *TeflonEngine) { e.locker = locker }
}

func WithSyncInterval(d time.Duration) TeflonEngineOption {
	return func(e *TeflonEngine) { e.syncInterval = d }
}

// WithFallbackRecorder overrides the Redis fallback writer (tests).
func WithFallbackRecorder(fn func(string, models.TeflonStatus, time.Time) error) TeflonEngineOption {
	return func(e *TeflonEngine) { e.fallback = fn }
}

func NewTeflonEngine(store models.Datastore, logger *logrus.Logger, opts ...TeflonEngineOption) *TeflonEngine {
	if logger == nil {
		logger = config.GetLogger()
	}
	e := &TeflonEngine{
		store:        store,
		logger:       logger,
		fallback:     models.RecordTeflonFallback,
		syncInterval: time.Duration(config.IntFromEnv("TEFLON_SYNC_INTERVAL_SECONDS", 60)) * time.Second,
		triggerCh:    make(chan string, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load performs the initial bulk reload and reconciliation. Safe to call
// again; it funnels through the same single-flight guard as sync reloads.
func (e *TeflonEngine) Load(ctx context.Context) error {
	return e.reloadOnce(ctx, "initial")
}

// Ready reports whether the first load has completed; HTTP handlers answer
// 503 until then.
func (e *TeflonEngine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Generation returns the current snapshot generation token. Incremented on
// every rebuild; in-flight incremental queries compare against it between
// chunks.
func (e *TeflonEngine) Generation() uint64 {
	return e.generation.Load()
}

// ExcludedMolds lists mold ids dropped from the last reconciliation because
// their legacy status could not be resolved (documented ambiguity, never a
// guess).
func (e *TeflonEngine) ExcludedMolds() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.excluded))
	copy(out, e.excluded)
	return out
}

// BucketCounts returns the size of each status bucket, for ops tooling.
func (e *TeflonEngine) BucketCounts() map[models.TeflonStatus]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	counts := make(map[models.TeflonStatus]int, len(e.buckets))
	for status, rows := range e.buckets {
		counts[status] = len(rows)
	}
	return counts
}

// rebuild recomputes states and buckets from the current snapshot and bumps
// the generation. Caller must NOT hold e.mu.
func (e *TeflonEngine) rebuild() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuildLocked()
}

func (e *TeflonEngine) rebuildLocked() {
	snap := e.snapshot
	if snap == nil {
		return
	}
	start := time.Now()

	e.employees = make(map[int]string, len(snap.Employees))
	for _, emp := range snap.Employees {
		e.employees[emp.ID] = emp.DisplayName()
	}
	e.suppliers = make(map[int]string, len(snap.Suppliers))
	for _, sup := range snap.Suppliers {
		e.suppliers[sup.ID] = sup.DisplayName()
	}
	maxId := 0
	for _, l := range snap.Logs {
		if l.ID > maxId {
			maxId = l.ID
		}
	}
	e.maxLogId = maxId

	states, excluded := ReconcileTeflonStates(snap.Molds, snap.Logs, e.employees, e.suppliers, e.logger)
	e.states = states
	e.excluded = excluded
	e.buckets = BuildTeflonBuckets(states)
	e.loaded = true
	e.generation.Add(1)

	e.logger.WithFields(logrus.Fields{
		"molds":      len(snap.Molds),
		"logs":       len(snap.Logs),
		"states":     len(states),
		"excluded":   len(excluded),
		"generation": e.generation.Load(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("teflon.reconcile.end")
}
