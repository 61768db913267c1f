// Command media-control is a mudra hook that maps gestures to macOS media
// and volume keys via AppleScript.
//
// The hook.json config maps event names to actions:
//
//	{"actions": {"like": "media-play-pause", "peace": "media-next"}}
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// request is the subset of the hook request this command reads.
type request struct {
	Event  string          `json:"event"`
	Config json.RawMessage `json:"config"`
}

type response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	Actions map[string]string `json:"actions"`
}

var defaultActions = map[string]string{
	"like":  "media-play-pause",
	"peace": "media-next",
	"ok":    "volume-mute",
}

var scripts = map[string]string{
	"volume-up":        `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down":      `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute":      `set volume output muted (not (output muted of (get volume settings)))`,
	"media-play-pause": keyCode(100),
	"media-next":       keyCode(101),
	"media-prev":       keyCode(98),
}

func keyCode(code int) string {
	return fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		reply(fmt.Errorf("failed to decode request: %w", err), "")
		return
	}

	action, err := resolve(req)
	if err != nil {
		reply(err, "")
		return
	}
	if runtime.GOOS != "darwin" {
		reply(fmt.Errorf("%s is only supported on macOS", action), action)
		return
	}

	out, err := exec.Command("osascript", "-e", scripts[action]).CombinedOutput()
	if err != nil {
		err = fmt.Errorf("%s failed: %w: %s", action, err, out)
	}
	reply(err, action)
}

// resolve picks the action for the request's event.
func resolve(req request) (string, error) {
	actions := defaultActions
	if len(req.Config) > 0 {
		var cfg config
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", fmt.Errorf("invalid config: %w", err)
		}
		if len(cfg.Actions) > 0 {
			actions = cfg.Actions
		}
	}

	action, ok := actions[req.Event]
	if !ok {
		return "", fmt.Errorf("no action bound to event %q", req.Event)
	}
	if _, ok := scripts[action]; !ok {
		return "", fmt.Errorf("unknown action: %s", action)
	}
	return action, nil
}

func reply(err error, action string) {
	resp := response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	if action != "" {
		resp.Data, _ = json.Marshal(map[string]string{"action": action})
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
