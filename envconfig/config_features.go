// config_features.go - tuning knobs
package envconfig

import (
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

var (
	// NoStore disables falling back to the tokenizer store when resolving
	// a --tokenizer argument that is not a file.
	NoStore = Bool("MINIBPE_NOSTORE")

	// NumParallel bounds concurrent encodes in a batch. Zero means GOMAXPROCS.
	NumParallel = func() uint {
		if n := Uint("MINIBPE_NUM_PARALLEL", 0)(); n > 0 {
			return n
		}
		return uint(runtime.GOMAXPROCS(0))
	}
)

// RegexTimeout returns the match timeout applied to presplit patterns.
// Configurable via MINIBPE_REGEX_TIMEOUT as a duration ("500ms") or seconds.
// Zero means no timeout.
func RegexTimeout() time.Duration {
	s := Var("MINIBPE_REGEX_TIMEOUT")
	if s == "" {
		return 0
	}

	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	} else if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}

	slog.Warn("invalid environment variable, ignoring", "key", "MINIBPE_REGEX_TIMEOUT", "value", s)
	return 0
}
