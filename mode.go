package lazymodal

import "strings"

// Mode selects which trigger stimulus starts loading.
type Mode string

const (
	// ModeHover loads on pointer-enter or focus of a trigger. Default.
	ModeHover Mode = "hover"

	// ModeClick loads only when a trigger is clicked.
	ModeClick Mode = "click"

	// ModeVisible loads when any trigger becomes visible.
	ModeVisible Mode = "visible"

	// ModeLoad loads as soon as the modal is attached.
	ModeLoad Mode = "load"
)

// ParseMode maps a load-on attribute value to a Mode. Unknown and empty
// values give ModeHover.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeClick, ModeHover, ModeVisible, ModeLoad:
		return m
	}
	return ModeHover
}

// State is a modal's position in its activation cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}
