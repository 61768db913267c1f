// Package hook runs external executables in response to recognized
// gestures and snapshots. Each hook lives in its own directory under the
// hook root with a hook.json manifest.
package hook

import (
	"encoding/json"
	"slices"
)

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "hook.json"

// Event names a hook can bind to.
const (
	EventOK       = "ok"
	EventLike     = "like"
	EventPeace    = "peace"
	EventSnapshot = "snapshot"
)

// Manifest describes a hook's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Gestures    []string        `json:"gestures"`
	Config      json.RawMessage `json:"config,omitempty"`
	// CooldownMs overrides the dispatcher's per-hook cooldown.
	CooldownMs int `json:"cooldownMs,omitempty"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event       string          `json:"event"`
	Gesture     string          `json:"gesture,omitempty"`
	Handedness  string          `json:"handedness,omitempty"`
	Orientation string          `json:"orientation,omitempty"`
	Expression  string          `json:"expression"`
	GestureText string          `json:"gesture_text"`
	ImageKey    string          `json:"image_key"`
	Frame       uint64          `json:"frame"`
	Snapshot    string          `json:"snapshot,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook is bound to event.
func (h *Hook) Handles(event string) bool {
	return slices.Contains(h.Manifest.Gestures, event)
}
