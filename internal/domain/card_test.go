package domain

import (
	"encoding/json"
	"testing"
)

func TestParseCreditTier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CreditTier
		wantErr bool
	}{
		{"Excellent", "Excellent", TierExcellent, false},
		{"CaseInsensitive", "very good", TierVeryGood, false},
		{"RangeLowerBound", "Good to Excellent", TierGood, false},
		{"Whitespace", "  Fair ", TierFair, false},
		{"Unknown", "Platinum", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreditTier(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected tier %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCreditTierJSONRoundTrip(t *testing.T) {
	t.Run("NamedTier", func(t *testing.T) {
		data, err := json.Marshal(TierVeryGood)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `"Very Good"` {
			t.Errorf("expected \"Very Good\", got %s", data)
		}

		var tier CreditTier
		if err := json.Unmarshal(data, &tier); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if tier != TierVeryGood {
			t.Errorf("expected TierVeryGood, got %v", tier)
		}
	})

	t.Run("ZeroTier", func(t *testing.T) {
		data, err := json.Marshal(CreditTier(0))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `""` {
			t.Errorf("expected empty string, got %s", data)
		}

		var tier CreditTier
		if err := json.Unmarshal(data, &tier); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if tier != 0 {
			t.Errorf("expected zero tier, got %v", tier)
		}
	})

	t.Run("UnknownName", func(t *testing.T) {
		var tier CreditTier
		if err := json.Unmarshal([]byte(`"Platinum"`), &tier); err == nil {
			t.Fatal("expected error for unknown tier name")
		}
	})
}

// A card missing its credit tier and a profile that never set one must
// still serialize cleanly.
func TestUnsetTierSerializes(t *testing.T) {
	t.Run("PartialCard", func(t *testing.T) {
		data, err := json.Marshal(&Card{ID: "broken"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var card Card
		if err := json.Unmarshal(data, &card); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if card.CreditScoreRequired != 0 {
			t.Errorf("expected zero tier, got %v", card.CreditScoreRequired)
		}
	})

	t.Run("FreshProfile", func(t *testing.T) {
		data, err := json.Marshal(&UserProfile{UserID: "user-1"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var p UserProfile
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if p.EffectiveCreditScore() != TierGood {
			t.Errorf("expected default Good tier, got %v", p.EffectiveCreditScore())
		}
	})
}
