package settings

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Values maps placeholder keys (without braces) to their substitutions.
type Values map[string]string

var placeholderRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Settings holding booleans are rewritten to JSON literals so templates can embed them unquoted.
var boolKeys = []string{
	"USE_WHITELIST",
	"DATABASE_DEBUG",
	"ADD_TEST_DATA",
	"ENABLE_EMAIL_NOTIFICATIONS",
	"ENABLE_AUTO_HTTPS",
}

// LoadFile reads a bash-style settings file (KEY=value, optional export and quotes)
// and derives the values templates expect.
func LoadFile(path string) (Values, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file %s: %w", path, err)
	}
	return Derive(raw), nil
}

// Derive normalizes raw settings: the backend port gains its ":" prefix and
// boolean settings become "true" or "false".
func Derive(raw map[string]string) Values {
	v := make(Values, len(raw))
	for k, val := range raw {
		v[k] = val
	}

	v[KeyBackendAdditionalPort] = NormalizePort(v[KeyBackendAdditionalPort])

	for _, key := range boolKeys {
		val, ok := v[key]
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			v[key] = "true"
		default:
			v[key] = "false"
		}
	}
	return v
}

// Deployment extracts the client deployment settings.
func (v Values) Deployment() Deployment {
	return Deployment{
		AppName:               v[KeyAppName],
		ServerWebAddress:      v[KeyServerWebAddress],
		BackendAdditionalPort: v[KeyBackendAdditionalPort],
		ContactEmail:          v[KeyContactEmail],
		Timezone:              v[KeyTimezone],
	}
}

// Apply substitutes every {{KEY}} placeholder present in v and returns the
// rendered text plus the sorted, de-duplicated keys left unreplaced.
func Apply(template string, v Values) (string, []string) {
	var missing map[string]struct{}
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[2 : len(m)-2]
		if val, ok := v[key]; ok {
			return val
		}
		if missing == nil {
			missing = make(map[string]struct{})
		}
		missing[key] = struct{}{}
		return m
	})

	if len(missing) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return out, keys
}
