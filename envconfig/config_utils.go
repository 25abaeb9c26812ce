// config_utils.go - typed getters and the documentation table
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// BoolWithDefault returns a getter for a boolean variable with a default.
// A set but unparsable value counts as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String returns a getter for a string variable. Unset reads as "".
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value and a description.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"MINIBPE_DEBUG":         {"MINIBPE_DEBUG", LogLevel(), "Show additional debug information (e.g. MINIBPE_DEBUG=1, 2 for trace)"},
		"MINIBPE_HOME":          {"MINIBPE_HOME", Home(), "Data directory (default \"$HOME/.minibpe\")"},
		"MINIBPE_STORE":         {"MINIBPE_STORE", Store(), "Path of the tokenizer database"},
		"MINIBPE_PATTERN":       {"MINIBPE_PATTERN", Pattern(), "Presplit pattern for training: gpt2, gpt4, none or a regular expression (default: gpt4)"},
		"MINIBPE_NUM_PARALLEL":  {"MINIBPE_NUM_PARALLEL", NumParallel(), "Maximum number of inputs encoded in parallel"},
		"MINIBPE_REGEX_TIMEOUT": {"MINIBPE_REGEX_TIMEOUT", RegexTimeout(), "Match timeout for presplit patterns (default: none)"},
		"MINIBPE_NOSTORE":       {"MINIBPE_NOSTORE", NoStore(), "Resolve --tokenizer from files only"},
	}
}

// Values returns the current value of every variable as strings.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
