package workflow

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"bitbucket.org/mmdatafocus/moldtrack_backend/utils"
)

const (
	TeflonFilterAll    = "all"
	TeflonFilterActive = "active"
)

// teflonActiveStatuses is the fixed "operationally relevant" union behind
// the active filter.
var teflonActiveStatuses = []models.TeflonStatus{
	models.TeflonStatusPending,
	models.TeflonStatusApproved,
	models.TeflonStatusProcessing,
}

type TeflonQueryParams struct {
	Filter  string `form:"filter" json:"filter"`
	Search  string `form:"search" json:"search"`
	SortKey string `form:"sort_key" json:"sort_key"`
	SortDir string `form:"sort_dir" json:"sort_dir"`
}

// Query applies bucket filter, normalized free-text search and multi-key
// sort over the current snapshot. Tolerates being called while a rebuild is
// in flight: it reads one consistent bucket index under the read lock and
// never returns an error, only an empty result.
func (e *TeflonEngine) Query(p TeflonQueryParams) []*TeflonState {
	candidates := e.collectBuckets(p.Filter)
	if len(candidates) == 0 {
		return []*TeflonState{}
	}

	needle := utils.NormalizeSearchText(p.Search)
	if needle != "" {
		filtered := candidates[:0:0]
		for _, s := range candidates {
			if strings.Contains(s.searchBlob, needle) {
				filtered = append(filtered, s)
			}
		}
		candidates = filtered
	}

	sortTeflonStates(candidates, p.SortKey, p.SortDir)
	return candidates
}

// QueryChunks is the incremental consumer contract: the result is delivered
// in fixed-size batches, and between batches the engine generation is
// re-checked so a paint that was superseded aborts with ErrStaleQuery
// instead of writing stale rows. emit returning false also stops iteration.
func (e *TeflonEngine) QueryChunks(ctx context.Context, p TeflonQueryParams, chunkSize int, emit func(chunk []*TeflonState) bool) error {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	gen := e.generation.Load()
	rows := e.Query(p)

	for start := 0; start < len(rows); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.generation.Load() != gen {
			return utils.ErrStaleQuery
		}
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if !emit(rows[start:end]) {
			return nil
		}
	}
	return nil
}

// collectBuckets copies the matching bucket slices out under the read lock
// so the caller can filter/sort without holding it.
func (e *TeflonEngine) collectBuckets(filterKey string) []*TeflonState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.buckets == nil {
		return nil
	}

	var out []*TeflonState
	switch strings.ToLower(strings.TrimSpace(filterKey)) {
	case TeflonFilterAll, "":
		for _, status := range models.AllTeflonStatuses {
			out = append(out, e.buckets[status]...)
		}
	case TeflonFilterActive:
		for _, status := range teflonActiveStatuses {
			out = append(out, e.buckets[status]...)
		}
	default:
		status, ok := models.ParseTeflonStatusKey(filterKey)
		if !ok {
			return nil
		}
		out = append(out, e.buckets[status]...)
	}
	return out
}

// sortTeflonStates sorts in place. Keys containing "date" compare as parsed
// dates with unparseable values treated as the earliest possible date;
// everything else compares case-insensitively. Tie order is whatever the
// sort algorithm leaves, by contract.
func sortTeflonStates(rows []*TeflonState, sortKey, sortDir string) {
	key := strings.ToLower(strings.TrimSpace(sortKey))
	if key == "" {
		key = "mold_id"
	}
	desc := strings.EqualFold(strings.TrimSpace(sortDir), "desc")

	if strings.Contains(key, "date") {
		sort.Slice(rows, func(i, j int) bool {
			ti := sortDateValue(rows[i], key)
			tj := sortDateValue(rows[j], key)
			if desc {
				return tj.Before(ti)
			}
			return ti.Before(tj)
		})
		return
	}

	sort.Slice(rows, func(i, j int) bool {
		vi := strings.ToLower(sortStringValue(rows[i], key))
		vj := strings.ToLower(sortStringValue(rows[j], key))
		if desc {
			return vj < vi
		}
		return vi < vj
	})
}

func sortDateValue(s *TeflonState, key string) time.Time {
	t, _ := utils.ParseFlexibleDate(sortStringValue(s, key))
	return t
}

func sortStringValue(s *TeflonState, key string) string {
	switch key {
	case "mold_id", "moldid":
		return s.MoldId
	case "name", "mold_name":
		return s.MoldName
	case "status":
		return string(s.Status)
	case "requested_by", "requester":
		return s.RequestedByName
	case "handler", "handled_by":
		return s.HandledByName
	case "supplier":
		return s.SupplierName
	case "requested_date":
		return s.RequestedDate
	case "expected_date":
		return s.ExpectedDate
	case "received_date":
		return s.ReceivedDate
	case "notes":
		return s.Notes
	default:
		return s.MoldId
	}
}

// Debouncer coalesces rapid triggers (one query per quiet period, not one
// per keystroke). Zero value is not usable; construct with NewDebouncer.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 180 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
