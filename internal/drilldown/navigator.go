package drilldown

import (
	"fmt"

	"sales-drilldown/internal/models"
)

// Source is the read-only record collection the navigator validates
// selections against. *dataset.Dataset satisfies it.
type Source interface {
	Regions() []string
	Categories(region string) []string
	HasRegion(region string) bool
	HasCategory(region, category string) bool
	Filter(region, category string) []models.Record
}

// ActionKind names a transition.
type ActionKind string

const (
	ActionExplore ActionKind = "explore"
	ActionBack    ActionKind = "back"
	ActionHome    ActionKind = "home"
)

// Action is a transition request. Value is only used by explore.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

func Explore(value string) Action { return Action{Kind: ActionExplore, Value: value} }
func Back() Action                { return Action{Kind: ActionBack} }
func GoHome() Action              { return Action{Kind: ActionHome} }

// Navigator maps states to views and applies transitions. It holds no
// per-session data, so one Navigator serves every session.
type Navigator struct {
	src Source
}

func NewNavigator(src Source) *Navigator {
	return &Navigator{src: src}
}

// GoHome resets st to the regions level.
func (n *Navigator) GoHome(st *State) {
	*st = Home()
}

// Explore moves one level down by selecting value from the current level's
// domain. On error st is left untouched.
func (n *Navigator) Explore(st *State, value string) error {
	next, err := n.explore(*st, value)
	if err != nil {
		return err
	}
	*st = next
	return nil
}

func (n *Navigator) explore(st State, value string) (State, error) {
	switch st.Level {
	case LevelRegions:
		if !n.src.HasRegion(value) {
			return st, rejected(st.Level, value, "unknown region")
		}
		return State{Level: LevelCategories, Region: value}, nil
	case LevelCategories:
		if !n.src.HasCategory(st.Region, value) {
			return st, rejected(st.Level, value, fmt.Sprintf("no such category in region %s", st.Region))
		}
		return State{Level: LevelProducts, Region: st.Region, Category: value}, nil
	default:
		return st, rejected(st.Level, value, "nothing to explore below products")
	}
}

// Back moves one level up and clears the most specific selection. It is a
// no-op at the regions level.
func (n *Navigator) Back(st *State) {
	switch st.Level {
	case LevelProducts:
		*st = State{Level: LevelCategories, Region: st.Region}
	case LevelCategories:
		*st = Home()
	}
}

// Dispatch applies action to st and returns the resulting state and its
// view. When the action is rejected the returned state is st itself.
func (n *Navigator) Dispatch(st State, action Action) (State, View, error) {
	next := st
	switch action.Kind {
	case ActionExplore:
		if err := n.Explore(&next, action.Value); err != nil {
			return st, n.CurrentView(st), err
		}
	case ActionBack:
		n.Back(&next)
	case ActionHome:
		n.GoHome(&next)
	default:
		return st, n.CurrentView(st), rejected(st.Level, string(action.Kind), "unknown action")
	}
	return next, n.CurrentView(next), nil
}

// Restore validates a complete target state, as carried by a deep link,
// against the dataset.
func (n *Navigator) Restore(target State) (State, error) {
	if !target.Valid() {
		return Home(), rejected(target.Level, target.String(), "selections do not match level")
	}
	if target.Level >= LevelCategories && !n.src.HasRegion(target.Region) {
		return Home(), rejected(LevelRegions, target.Region, "unknown region")
	}
	if target.Level == LevelProducts && !n.src.HasCategory(target.Region, target.Category) {
		return Home(), rejected(LevelCategories, target.Category, fmt.Sprintf("no such category in region %s", target.Region))
	}
	return target, nil
}

// Actions lists the transitions valid from st.
func (n *Navigator) Actions(st State) []Action {
	var actions []Action
	switch st.Level {
	case LevelRegions:
		for _, r := range n.src.Regions() {
			actions = append(actions, Explore(r))
		}
		return actions
	case LevelCategories:
		for _, c := range n.src.Categories(st.Region) {
			actions = append(actions, Explore(c))
		}
	}
	return append(actions, Back(), GoHome())
}
