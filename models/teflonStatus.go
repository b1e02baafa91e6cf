package models

import (
	"strings"
)

// TeflonStatus is the canonical five-value coating workflow state. Every
// component downstream of the vocabulary mapper operates on this type, never
// on raw label text.
type TeflonStatus string

const (
	TeflonStatusUnprocessed TeflonStatus = "Unprocessed"
	TeflonStatusPending     TeflonStatus = "Pending"
	TeflonStatusApproved    TeflonStatus = "Approved"
	TeflonStatusProcessing  TeflonStatus = "Processing"
	TeflonStatusCompleted   TeflonStatus = "Completed"
)

var AllTeflonStatuses = []TeflonStatus{
	TeflonStatusUnprocessed,
	TeflonStatusPending,
	TeflonStatusApproved,
	TeflonStatusProcessing,
	TeflonStatusCompleted,
}

// Full Japanese labels as written by the desktop-era tool.
var teflonFullLabels = map[string]TeflonStatus{
	"テフロン未処理": TeflonStatusUnprocessed,
	"テフロン依頼中": TeflonStatusPending,
	"テフロン承認済": TeflonStatusApproved,
	"テフロン加工中": TeflonStatusProcessing,
	"テフロン加工済": TeflonStatusCompleted,
}

// Short Japanese forms used by the mobile entry screens.
var teflonAbbreviations = map[string]TeflonStatus{
	"未処理": TeflonStatusUnprocessed,
	"依頼中": TeflonStatusPending,
	"承認済": TeflonStatusApproved,
	"加工中": TeflonStatusProcessing,
	"加工済": TeflonStatusCompleted,
}

var teflonEnglishWords = map[string]TeflonStatus{
	"unprocessed": TeflonStatusUnprocessed,
	"pending":     TeflonStatusPending,
	"approved":    TeflonStatusApproved,
	"processing":  TeflonStatusProcessing,
	"completed":   TeflonStatusCompleted,
}

// Labels left behind by the v1 system. "sent" meant the mold was physically
// at the supplier, which the current vocabulary calls processing.
var teflonLegacyAliases = map[string]TeflonStatus{
	"sent":      TeflonStatusProcessing,
	"requested": TeflonStatusPending,
	"done":      TeflonStatusCompleted,
	"finished":  TeflonStatusCompleted,
}

// ResolveTeflonStatus maps any of the four label vocabularies to the
// canonical status. Pure and total: unknown input returns ("", false), never
// an error, so callers can walk their fallback chain.
func ResolveTeflonStatus(raw string) (TeflonStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if s, ok := teflonFullLabels[trimmed]; ok {
		return s, true
	}
	if s, ok := teflonAbbreviations[trimmed]; ok {
		return s, true
	}
	lowered := strings.ToLower(trimmed)
	if s, ok := teflonEnglishWords[lowered]; ok {
		return s, true
	}
	return ResolveTeflonLegacyAlias(trimmed)
}

// ResolveTeflonLegacyAlias checks only the legacy English alias table. The
// reconciler uses it as a separate last attempt on log status values.
func ResolveTeflonLegacyAlias(raw string) (TeflonStatus, bool) {
	s, ok := teflonLegacyAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// ParseTeflonStatusKey parses a query-filter style key ("pending",
// "Completed") into a status. Unlike ResolveTeflonStatus it accepts only the
// canonical English words.
func ParseTeflonStatusKey(key string) (TeflonStatus, bool) {
	s, ok := teflonEnglishWords[strings.ToLower(strings.TrimSpace(key))]
	return s, ok
}

// LabelJP returns the full Japanese label, used for display, search blobs
// and for mirroring into the mold master legacy cache field.
func (s TeflonStatus) LabelJP() string {
	switch s {
	case TeflonStatusUnprocessed:
		return "テフロン未処理"
	case TeflonStatusPending:
		return "テフロン依頼中"
	case TeflonStatusApproved:
		return "テフロン承認済"
	case TeflonStatusProcessing:
		return "テフロン加工中"
	case TeflonStatusCompleted:
		return "テフロン加工済"
	}
	return string(s)
}

// Key returns the lowercase bucket key used by the query filter.
func (s TeflonStatus) Key() string {
	return strings.ToLower(string(s))
}
