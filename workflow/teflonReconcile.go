package workflow

import (
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"bitbucket.org/mmdatafocus/moldtrack_backend/utils"
	"github.com/sirupsen/logrus"
)

// ReconcileTeflonStates derives exactly one current-status row per mold from
// the full log history plus the master legacy cache fields. Pure with
// respect to its inputs (the logger only emits diagnostics), idempotent, and
// rebuilt wholesale rather than patched.
//
// Returns the reconciled rows plus the ids of molds excluded because their
// legacy status could not be resolved.
func ReconcileTeflonStates(
	molds []*models.Mold,
	logs []*models.TeflonLog,
	employees map[int]string,
	suppliers map[int]string,
	logger *logrus.Logger,
) ([]*TeflonState, []string) {
	grouped := make(map[string][]*models.TeflonLog)
	for _, l := range logs {
		if l.MoldId == "" {
			continue
		}
		grouped[l.MoldId] = append(grouped[l.MoldId], l)
	}

	states := make([]*TeflonState, 0, len(molds))
	excluded := make([]string, 0)

	for _, mold := range molds {
		group := grouped[mold.MoldId]

		if len(group) == 0 {
			// No log: the legacy cache is the only source. Both fields empty
			// means the mold was never sent for coating at all.
			if strings.TrimSpace(mold.TeflonCoating) == "" && strings.TrimSpace(mold.TeflonStatus) == "" {
				states = append(states, newTeflonState(mold, nil, models.TeflonStatusUnprocessed, employees, suppliers))
				continue
			}
			status, ok := resolveLegacyFields(mold)
			if !ok {
				excluded = append(excluded, mold.MoldId)
				logReconcileAmbiguity(logger, mold)
				continue
			}
			states = append(states, newTeflonState(mold, nil, status, employees, suppliers))
			continue
		}

		winner := selectTeflonWinner(group)
		status, ok := resolveLogStatus(winner)
		if !ok {
			// Last resort: the master cache may still carry a readable value.
			status, ok = resolveLegacyFields(mold)
		}
		if !ok {
			excluded = append(excluded, mold.MoldId)
			logReconcileAmbiguity(logger, mold)
			continue
		}
		states = append(states, newTeflonState(mold, winner, status, employees, suppliers))
	}

	return states, excluded
}

// selectTeflonWinner picks the log row that represents current truth.
// A higher positive ID always wins; when ids are equal or either is absent,
// the later effective timestamp wins; a full tie keeps the later row in
// input order (deterministic for a fixed input order).
func selectTeflonWinner(group []*models.TeflonLog) *models.TeflonLog {
	winner := group[0]
	for _, candidate := range group[1:] {
		if logOutranks(candidate, winner) {
			winner = candidate
		}
	}
	return winner
}

func logOutranks(candidate, current *models.TeflonLog) bool {
	if candidate.ID > 0 && current.ID > 0 && candidate.ID != current.ID {
		return candidate.ID > current.ID
	}
	return !effectiveLogTime(candidate).Before(effectiveLogTime(current))
}

// effectiveLogTime is the timestamp fallback chain for rows without a usable
// ID: updated, sent, requested, then the row's own created time.
func effectiveLogTime(l *models.TeflonLog) time.Time {
	for _, raw := range []string{l.UpdatedDate, l.SentDate, l.RequestedDate} {
		if t, ok := utils.ParseFlexibleDate(raw); ok {
			return t
		}
	}
	return l.CreatedAt
}

// resolveLogStatus walks the winning row's fallback chain: its status field,
// its coating-type field, then the status field through the legacy aliases
// alone.
func resolveLogStatus(l *models.TeflonLog) (models.TeflonStatus, bool) {
	if s, ok := models.ResolveTeflonStatus(l.Status); ok {
		return s, true
	}
	if s, ok := models.ResolveTeflonStatus(l.CoatingType); ok {
		return s, true
	}
	return models.ResolveTeflonLegacyAlias(l.Status)
}

func resolveLegacyFields(mold *models.Mold) (models.TeflonStatus, bool) {
	if s, ok := models.ResolveTeflonStatus(mold.TeflonCoating); ok {
		return s, true
	}
	return models.ResolveTeflonStatus(mold.TeflonStatus)
}

func logReconcileAmbiguity(logger *logrus.Logger, mold *models.Mold) {
	if logger == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"mold_id":        mold.MoldId,
		"teflon_coating": mold.TeflonCoating,
		"teflon_status":  mold.TeflonStatus,
	}).Warn("teflon.reconcile.ambiguous")
}

func newTeflonState(
	mold *models.Mold,
	source *models.TeflonLog,
	status models.TeflonStatus,
	employees map[int]string,
	suppliers map[int]string,
) *TeflonState {
	state := &TeflonState{
		MoldId:      mold.MoldId,
		MoldName:    mold.Name,
		Status:      status,
		StatusLabel: status.LabelJP(),
		Source:      source,
	}
	if source != nil {
		state.RequestedByName = employees[source.RequestedBy]
		if source.ReceivedBy != 0 {
			state.HandledByName = employees[source.ReceivedBy]
		} else {
			state.HandledByName = employees[source.SentBy]
		}
		state.SupplierName = suppliers[source.SupplierId]
		state.RequestedDate = utils.FormatDisplayDate(source.RequestedDate)
		state.ExpectedDate = utils.FormatDisplayDate(source.ExpectedDate)
		state.ReceivedDate = utils.FormatDisplayDate(source.ReceivedDate)
		state.Notes = source.Notes
	}
	state.searchBlob = buildSearchBlob(state)
	return state
}

// buildSearchBlob precomputes the lowercase haystack for free-text search,
// then appends a delimiter-stripped duplicate so "2025/12/01" input matches
// a "2025-12-01" field.
func buildSearchBlob(s *TeflonState) string {
	raw := strings.ToLower(strings.Join([]string{
		s.MoldName,
		s.MoldId,
		s.StatusLabel,
		s.RequestedByName,
		s.HandledByName,
		s.Notes,
		s.RequestedDate,
		s.ExpectedDate,
		s.ReceivedDate,
	}, " "))
	return raw + " " + utils.StripDateDelimiters(raw)
}

// BuildTeflonBuckets partitions reconciled rows by canonical status. Always
// a full rebuild alongside reconciliation, so the index trivially matches
// the snapshot.
func BuildTeflonBuckets(states []*TeflonState) map[models.TeflonStatus][]*TeflonState {
	buckets := make(map[models.TeflonStatus][]*TeflonState, len(models.AllTeflonStatuses))
	for _, s := range states {
		buckets[s.Status] = append(buckets[s.Status], s)
	}
	return buckets
}
