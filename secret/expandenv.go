package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// LookupFunc reports the value of a variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// Overlay returns a LookupFunc that consults values first and falls back to
// the process environment.
func Overlay(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand expands variables in s using lookup.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded; an unset `$VAR` becomes "".
//   - An unset `${VAR}` is an error naming every missing variable.
//   - `$$` emits a literal `$`.
func Expand(s string, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	const dollarSentinel = "\x00SFQUERY_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := lookup(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	s = os.Expand(s, func(key string) string {
		v, _ := lookup(key)
		return v
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}

// ExpandEnvStrict is Expand against the process environment.
func ExpandEnvStrict(s string) (string, error) {
	return Expand(s, os.LookupEnv)
}
