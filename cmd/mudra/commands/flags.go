package commands

import (
	"time"

	"github.com/spf13/pflag"
)

// The set* helpers copy a flag into dst only when the user passed it, so
// unset flags leave environment values in place.

func setString(fs *pflag.FlagSet, name string, dst *string) {
	if fs.Changed(name) {
		*dst, _ = fs.GetString(name)
	}
}

func setInt(fs *pflag.FlagSet, name string, dst *int) {
	if fs.Changed(name) {
		*dst, _ = fs.GetInt(name)
	}
}

func setBool(fs *pflag.FlagSet, name string, dst *bool) {
	if fs.Changed(name) {
		*dst, _ = fs.GetBool(name)
	}
}

func setDuration(fs *pflag.FlagSet, name string, dst *time.Duration) {
	if fs.Changed(name) {
		*dst, _ = fs.GetDuration(name)
	}
}
