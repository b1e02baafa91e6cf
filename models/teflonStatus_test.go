package models

import "testing"

func TestResolveTeflonStatus_FullVocabulary(t *testing.T) {
	cases := []struct {
		raw  string
		want TeflonStatus
	}{
		// full Japanese labels
		{"テフロン未処理", TeflonStatusUnprocessed},
		{"テフロン依頼中", TeflonStatusPending},
		{"テフロン承認済", TeflonStatusApproved},
		{"テフロン加工中", TeflonStatusProcessing},
		{"テフロン加工済", TeflonStatusCompleted},
		// short Japanese forms
		{"未処理", TeflonStatusUnprocessed},
		{"依頼中", TeflonStatusPending},
		{"承認済", TeflonStatusApproved},
		{"加工中", TeflonStatusProcessing},
		{"加工済", TeflonStatusCompleted},
		// English canonical words, any case
		{"unprocessed", TeflonStatusUnprocessed},
		{"Pending", TeflonStatusPending},
		{"APPROVED", TeflonStatusApproved},
		{"Processing", TeflonStatusProcessing},
		{"completed", TeflonStatusCompleted},
		// legacy aliases
		{"sent", TeflonStatusProcessing},
		{"Sent", TeflonStatusProcessing},
		{"requested", TeflonStatusPending},
		{"done", TeflonStatusCompleted},
		{"Finished", TeflonStatusCompleted},
		// whitespace tolerated
		{"  加工済  ", TeflonStatusCompleted},
	}
	for _, tc := range cases {
		got, ok := ResolveTeflonStatus(tc.raw)
		if !ok {
			t.Errorf("ResolveTeflonStatus(%q) not resolved", tc.raw)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveTeflonStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestResolveTeflonStatus_UnknownIsEmptyNotError(t *testing.T) {
	for _, raw := range []string{"", "   ", "garbage", "テフロン", "出荷済"} {
		if got, ok := ResolveTeflonStatus(raw); ok {
			t.Errorf("ResolveTeflonStatus(%q) = %s, want unresolved", raw, got)
		}
	}
}

func TestResolveTeflonLegacyAlias_OnlyAliases(t *testing.T) {
	if _, ok := ResolveTeflonLegacyAlias("pending"); ok {
		t.Error("legacy alias path must not accept canonical English words")
	}
	got, ok := ResolveTeflonLegacyAlias("SENT")
	if !ok || got != TeflonStatusProcessing {
		t.Errorf("ResolveTeflonLegacyAlias(SENT) = %s ok=%v, want Processing", got, ok)
	}
}

func TestParseTeflonStatusKey(t *testing.T) {
	got, ok := ParseTeflonStatusKey("Completed")
	if !ok || got != TeflonStatusCompleted {
		t.Errorf("ParseTeflonStatusKey(Completed) = %s ok=%v", got, ok)
	}
	if _, ok := ParseTeflonStatusKey("加工済"); ok {
		t.Error("ParseTeflonStatusKey must only accept English filter keys")
	}
	if _, ok := ParseTeflonStatusKey("active"); ok {
		t.Error("active is a filter union, not a status key")
	}
}

func TestTeflonStatusLabelJP_Total(t *testing.T) {
	for _, status := range AllTeflonStatuses {
		label := status.LabelJP()
		if label == "" || label == string(status) {
			t.Errorf("LabelJP missing for %s", status)
		}
		// the mapper must round-trip its own labels
		back, ok := ResolveTeflonStatus(label)
		if !ok || back != status {
			t.Errorf("LabelJP(%s) = %q does not resolve back", status, label)
		}
	}
}
