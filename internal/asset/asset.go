// Package asset enumerates the response images the interaction engine can
// ask the presentation layer to show.
package asset

// Key names one response image. The set is closed; see All.
type Key string

const (
	Neutro   Key = "neutro"
	Sol      Key = "sol"
	Lua      Key = "lua"
	OK       Key = "ok"
	Like     Key = "like"
	Paz      Key = "paz"
	Sorriso  Key = "sorriso"
	Surpresa Key = "surpresa"
)

var all = []Key{Neutro, Sol, Lua, OK, Like, Paz, Sorriso, Surpresa}

// All returns every known key.
func All() []Key {
	out := make([]Key, len(all))
	copy(out, all)
	return out
}

// Parse returns the Key named s, or false if s is not in the set.
func Parse(s string) (Key, bool) {
	for _, k := range all {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Filename is the on-disk name of the image for k.
func (k Key) Filename() string {
	return string(k) + ".jpg"
}
