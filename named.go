package ygggo_db

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// isNamedArg reports whether params is a single map or struct meant for
// :name placeholders rather than one positional value.
func isNamedArg(params []any) bool {
	if len(params) != 1 || params[0] == nil {
		return false
	}
	switch params[0].(type) {
	case driver.Valuer, time.Time, *time.Time, []byte:
		return false
	}
	rv := reflect.ValueOf(params[0])
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() { return false }
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return true
	}
	return false
}

// bindParams turns params into driver arguments. A single map or struct is
// bound to :name placeholders and the query is rebound for the driver;
// anything else is passed through positionally.
func bindParams(conn *sqlx.Conn, query string, params []any) (string, []any, error) {
	if !isNamedArg(params) {
		return query, params, nil
	}
	bound, args, err := sqlx.Named(query, params[0])
	if err != nil {
		return "", nil, fmt.Errorf("bind named parameters: %w", err)
	}
	return conn.Rebind(bound), args, nil
}

// structOrMapToMap flattens a struct (using `db` tags) or converts a map with
// string keys. Field names without a tag are lower-cased, as sqlx does.
func structOrMapToMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer { rv = rv.Elem() }
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	case reflect.Struct:
	default:
		return nil, fmt.Errorf("expected struct or map, got %T", v)
	}
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Tag.Get("db")
		if name == "-" { continue }
		if idx := strings.IndexByte(name, ','); idx >= 0 { name = name[:idx] }
		if name == "" { name = strings.ToLower(f.Name) }
		out[name] = rv.Field(i).Interface()
	}
	return out, nil
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// Substitute renders query with every ? replaced by the next positional value
// and every :name replaced by the named value, each quoted as 'value'.
// The output is for people reading traces and must never be executed.
func Substitute(query string, params ...any) string {
	if len(params) == 0 {
		return query
	}
	var named map[string]any
	if isNamedArg(params) {
		named, _ = structOrMapToMap(params[0])
	}

	var b strings.Builder
	b.Grow(len(query) + 16*len(params))
	next := 0
	inSingle, inDouble := false, false
	i := 0
	for i < len(query) {
		ch := query[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case inSingle || inDouble:
		case ch == '?' && named == nil:
			if next < len(params) {
				b.WriteString(quoteTraceValue(params[next]))
				next++
				i++
				continue
			}
		case ch == ':' && named != nil && (i == 0 || query[i-1] != ':'):
			j := i + 1
			for j < len(query) && isIdentByte(query[j]) {
				j++
			}
			if j > i+1 {
				if v, ok := named[query[i+1:j]]; ok {
					b.WriteString(quoteTraceValue(v))
					i = j
					continue
				}
			}
		}
		b.WriteByte(ch)
		i++
	}
	return b.String()
}

func quoteTraceValue(v any) string { return "'" + dumpScalar(v) + "'" }
