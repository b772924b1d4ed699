package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRewardBundle_MarshalIncludesBadges(t *testing.T) {
	bundle := RewardBundle{
		Badges: []Badge{
			{
				ID:          "first_step",
				Name:        "First Step",
				Description: "はじめての読了",
				Icon:        "🏅",
				Predicate:   func(p *UserProgress) bool { return p.StoriesRead >= 1 },
			},
		},
		Treasure: Treasure{ID: "t1", Message: "m", StoryTitle: "s"},
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded struct {
		Badges []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Icon string `json:"icon"`
		} `json:"badges"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(decoded.Badges) != 1 {
		t.Fatalf("badges length = %d, want 1", len(decoded.Badges))
	}
	if decoded.Badges[0].ID != "first_step" || decoded.Badges[0].Name != "First Step" {
		t.Errorf("badge = %+v, want first_step / First Step", decoded.Badges[0])
	}

	// 述語関数は直列化されない
	if strings.Contains(string(data), "Predicate") {
		t.Errorf("output contains Predicate: %s", data)
	}
}
