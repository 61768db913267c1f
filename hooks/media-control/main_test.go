package main

import (
	"encoding/json"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		req     request
		want    string
		wantErr bool
	}{
		{"default like", request{Event: "like"}, "media-play-pause", false},
		{"default peace", request{Event: "peace"}, "media-next", false},
		{"configured", request{Event: "ok", Config: json.RawMessage(`{"actions":{"ok":"volume-up"}}`)}, "volume-up", false},
		{"unbound event", request{Event: "snapshot"}, "", true},
		{"unknown action", request{Event: "ok", Config: json.RawMessage(`{"actions":{"ok":"reboot"}}`)}, "", true},
		{"bad config", request{Event: "ok", Config: json.RawMessage(`[1]`)}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}
