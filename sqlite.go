package ygggo_db

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteDefaultPragmas are applied to every SQLite connection unless
// Config.Params overrides the same pragma.
var sqliteDefaultPragmas = map[string]string{
	"busy_timeout": "5000",
	"foreign_keys": "1",
}

// sqliteDSN builds a modernc.org/sqlite DSN from Config.Name (the file path,
// or ":memory:") and Config.Params, which are treated as pragmas.
func sqliteDSN(c Config) string {
	pragmas := make(map[string]string, len(sqliteDefaultPragmas)+len(c.Params))
	for k, v := range sqliteDefaultPragmas {
		pragmas[k] = v
	}
	for k, v := range c.Params {
		pragmas[strings.ToLower(k)] = v
	}

	// Build pragmas in stable order for test determinism
	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, "_pragma="+url.QueryEscape(fmt.Sprintf("%s(%s)", k, pragmas[k])))
	}
	return c.Name + "?" + strings.Join(parts, "&")
}
