// Package drilldown implements the region → category → product navigation
// state machine behind the dashboard.
package drilldown

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the depth of the drill-down.
type Level int

const (
	LevelRegions Level = iota
	LevelCategories
	LevelProducts
)

var levelNames = [...]string{"regions", "categories", "products"}

func (l Level) String() string {
	if l < LevelRegions || l > LevelProducts {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel accepts the level names used in deep links. The empty string
// means the top level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "regions":
		return LevelRegions, nil
	case "categories":
		return LevelCategories, nil
	case "products":
		return LevelProducts, nil
	default:
		return LevelRegions, fmt.Errorf("unknown level %q", s)
	}
}

// State is one session's position in the drill-down. An empty Region or
// Category means nothing is selected at that level.
//
// Categories requires Region; Products requires Region and Category.
type State struct {
	Level    Level  `json:"level"`
	Region   string `json:"selected_region,omitempty"`
	Category string `json:"selected_category,omitempty"`
}

// Home is the state every session starts in.
func Home() State {
	return State{Level: LevelRegions}
}

// Valid reports whether the selections match the level.
func (s State) Valid() bool {
	switch s.Level {
	case LevelRegions:
		return s.Region == "" && s.Category == ""
	case LevelCategories:
		return s.Region != "" && s.Category == ""
	case LevelProducts:
		return s.Region != "" && s.Category != ""
	default:
		return false
	}
}

func (s State) String() string {
	region, category := "None", "None"
	if s.Region != "" {
		region = s.Region
	}
	if s.Category != "" {
		category = s.Category
	}
	return fmt.Sprintf("{%s, %s, %s}", s.Level, region, category)
}
