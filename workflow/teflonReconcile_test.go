package workflow

import (
	"io"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func noNames() map[int]string { return map[int]string{} }

func findState(states []*TeflonState, moldId string) *TeflonState {
	for _, s := range states {
		if s.MoldId == moldId {
			return s
		}
	}
	return nil
}

func TestWinnerSelection_HigherLogIdWins(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1", Name: "Mold One"}}
	low := &models.TeflonLog{ID: 5, MoldId: "M1", Status: "加工中"}
	high := &models.TeflonLog{ID: 7, MoldId: "M1", Status: "加工済"}

	for _, logs := range [][]*models.TeflonLog{{low, high}, {high, low}} {
		states, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
		s := findState(states, "M1")
		if s == nil {
			t.Fatal("M1 missing from reconciled set")
		}
		if s.Source == nil || s.Source.ID != 7 {
			t.Errorf("winner = %+v, want log 7 regardless of input order", s.Source)
		}
		if s.Status != models.TeflonStatusCompleted {
			t.Errorf("status = %s, want Completed", s.Status)
		}
	}
}

func TestWinnerSelection_TieBreakOnUpdatedDate(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1"}}
	older := &models.TeflonLog{MoldId: "M1", Status: "依頼中", UpdatedDate: "2025-01-10"}
	newer := &models.TeflonLog{MoldId: "M1", Status: "加工済", UpdatedDate: "2025-03-01"}

	for _, logs := range [][]*models.TeflonLog{{older, newer}, {newer, older}} {
		states, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
		s := findState(states, "M1")
		if s == nil || s.Status != models.TeflonStatusCompleted {
			t.Fatalf("want later UpdatedDate to win, got %+v", s)
		}
	}
}

func TestWinnerSelection_TimestampFallbackChain(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1"}}
	// no UpdatedDate anywhere: SentDate decides
	a := &models.TeflonLog{MoldId: "M1", Status: "依頼中", SentDate: "2025-01-05"}
	b := &models.TeflonLog{MoldId: "M1", Status: "加工中", SentDate: "2025-02-05"}
	states, _ := ReconcileTeflonStates(molds, []*models.TeflonLog{b, a}, noNames(), noNames(), testLogger())
	s := findState(states, "M1")
	if s == nil || s.Status != models.TeflonStatusProcessing {
		t.Fatalf("want SentDate fallback winner, got %+v", s)
	}
}

func TestWinnerSelection_AllAbsent_DeterministicLastWins(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1"}}
	first := &models.TeflonLog{MoldId: "M1", Status: "依頼中"}
	second := &models.TeflonLog{MoldId: "M1", Status: "加工済"}

	states, _ := ReconcileTeflonStates(molds, []*models.TeflonLog{first, second}, noNames(), noNames(), testLogger())
	s := findState(states, "M1")
	if s == nil || s.Status != models.TeflonStatusCompleted {
		t.Fatalf("fixed input order [first second]: want last row to win, got %+v", s)
	}

	states, _ = ReconcileTeflonStates(molds, []*models.TeflonLog{second, first}, noNames(), noNames(), testLogger())
	s = findState(states, "M1")
	if s == nil || s.Status != models.TeflonStatusPending {
		t.Fatalf("fixed input order [second first]: want last row to win, got %+v", s)
	}
}

func TestReconcile_LegacyOnlyMolds(t *testing.T) {
	molds := []*models.Mold{
		{MoldId: "A", TeflonCoating: "", TeflonStatus: ""},
		{MoldId: "B", TeflonCoating: "テフロン加工済"},
	}
	states, excluded := ReconcileTeflonStates(molds, nil, noNames(), noNames(), testLogger())
	if len(excluded) != 0 {
		t.Fatalf("unexpected exclusions: %v", excluded)
	}

	a := findState(states, "A")
	if a == nil || a.Status != models.TeflonStatusUnprocessed || a.Source != nil {
		t.Errorf("A = %+v, want synthesized Unprocessed with nil source", a)
	}
	b := findState(states, "B")
	if b == nil || b.Status != models.TeflonStatusCompleted || b.Source != nil {
		t.Errorf("B = %+v, want Completed from legacy field", b)
	}
}

func TestReconcile_LegacyAliasLosesToDirectLabel(t *testing.T) {
	molds := []*models.Mold{{MoldId: "C"}}
	logs := []*models.TeflonLog{
		{ID: 3, MoldId: "C", Status: "Sent"},
		{ID: 4, MoldId: "C", Status: "Pending"},
	}
	states, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	s := findState(states, "C")
	if s == nil {
		t.Fatal("C missing")
	}
	if s.Source == nil || s.Source.ID != 4 {
		t.Errorf("winner = %+v, want log 4", s.Source)
	}
	if s.Status != models.TeflonStatusPending {
		t.Errorf("status = %s, want Pending", s.Status)
	}
}

func TestReconcile_CoatingTypeFallback(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1"}}
	logs := []*models.TeflonLog{{ID: 1, MoldId: "M1", Status: "???", CoatingType: "加工中"}}
	states, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	s := findState(states, "M1")
	if s == nil || s.Status != models.TeflonStatusProcessing {
		t.Fatalf("want coating-type fallback to Processing, got %+v", s)
	}
}

func TestReconcile_AmbiguousLegacyIsExcludedNotGuessed(t *testing.T) {
	molds := []*models.Mold{
		{MoldId: "OK", TeflonCoating: "加工済"},
		{MoldId: "BAD", TeflonCoating: "ﾃﾌﾛﾝ?"},
	}
	states, excluded := ReconcileTeflonStates(molds, nil, noNames(), noNames(), testLogger())
	if findState(states, "BAD") != nil {
		t.Error("unresolvable legacy value must not produce a state")
	}
	if len(excluded) != 1 || excluded[0] != "BAD" {
		t.Errorf("excluded = %v, want [BAD]", excluded)
	}
	if findState(states, "OK") == nil {
		t.Error("resolvable mold dropped alongside the ambiguous one")
	}
}

func TestReconcile_ExactlyOneStatePerMold(t *testing.T) {
	molds := []*models.Mold{
		{MoldId: "M1"}, {MoldId: "M2", TeflonCoating: "依頼中"}, {MoldId: "M3"},
	}
	logs := []*models.TeflonLog{
		{ID: 1, MoldId: "M1", Status: "依頼中"},
		{ID: 2, MoldId: "M1", Status: "加工中"},
		{ID: 3, MoldId: "M3", Status: "承認済"},
		{ID: 4, MoldId: "M3", Status: "加工済"},
		{ID: 5, MoldId: "M3", Status: "sent"},
	}
	states, excluded := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	if len(states)+len(excluded) != len(molds) {
		t.Fatalf("states=%d excluded=%d molds=%d", len(states), len(excluded), len(molds))
	}
	seen := map[string]int{}
	for _, s := range states {
		seen[s.MoldId]++
	}
	for moldId, n := range seen {
		if n != 1 {
			t.Errorf("mold %s has %d states", moldId, n)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	molds := []*models.Mold{
		{MoldId: "M1"}, {MoldId: "M2", TeflonCoating: "テフロン加工済"},
	}
	logs := []*models.TeflonLog{
		{ID: 1, MoldId: "M1", Status: "Sent"},
		{ID: 2, MoldId: "M1", Status: "依頼中", UpdatedDate: "2025-05-01"},
	}

	first, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	second, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for _, s1 := range first {
		s2 := findState(second, s1.MoldId)
		if s2 == nil || s1.Status != s2.Status || s1.searchBlob != s2.searchBlob {
			t.Errorf("mold %s differs between runs", s1.MoldId)
		}
	}
}

func TestSearchBlob_ContainsStrippedDates(t *testing.T) {
	molds := []*models.Mold{{MoldId: "M1", Name: "Cover Die"}}
	logs := []*models.TeflonLog{{ID: 1, MoldId: "M1", Status: "加工済", ReceivedDate: "2025-12-01"}}
	states, _ := ReconcileTeflonStates(molds, logs, noNames(), noNames(), testLogger())
	s := findState(states, "M1")
	if s == nil {
		t.Fatal("M1 missing")
	}
	if !strings.Contains(s.searchBlob, "2025/12/01") {
		t.Errorf("blob missing formatted date: %q", s.searchBlob)
	}
	if !strings.Contains(s.searchBlob, "20251201") {
		t.Errorf("blob missing stripped duplicate: %q", s.searchBlob)
	}
	if !strings.Contains(s.searchBlob, "cover die") {
		t.Errorf("blob not lowercased: %q", s.searchBlob)
	}
}

func TestBuildTeflonBuckets_Partition(t *testing.T) {
	states := []*TeflonState{
		{MoldId: "A", Status: models.TeflonStatusPending},
		{MoldId: "B", Status: models.TeflonStatusPending},
		{MoldId: "C", Status: models.TeflonStatusCompleted},
	}
	buckets := BuildTeflonBuckets(states)
	if len(buckets[models.TeflonStatusPending]) != 2 {
		t.Errorf("pending bucket = %d, want 2", len(buckets[models.TeflonStatusPending]))
	}
	if len(buckets[models.TeflonStatusCompleted]) != 1 {
		t.Errorf("completed bucket = %d, want 1", len(buckets[models.TeflonStatusCompleted]))
	}
	total := 0
	for _, rows := range buckets {
		total += len(rows)
	}
	if total != len(states) {
		t.Errorf("buckets lose or duplicate rows: %d vs %d", total, len(states))
	}
}
