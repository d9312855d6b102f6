package ygggo_db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// noResultTrace is the result shown when a call produced nothing to report.
var noResultTrace = map[string]any{"error": "No results passed to debugger"}

// Trace describes one query call. It is emitted only when debug is on.
type Trace struct {
	Op       string
	Query    string
	Params   []any
	Result   any
	Err      error
	Duration time.Duration
}

// Shaped returns the value a trace dumps: the result when there is one, the
// error as {"error": message} when the call failed, or a placeholder.
func (t Trace) Shaped() any {
	if t.Result != nil {
		return t.Result
	}
	if t.Err != nil {
		return map[string]any{"error": traceErrorText(t.Err)}
	}
	return noResultTrace
}

// traceErrorText prefers the driver message over the wrapped QueryError text.
func traceErrorText(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) && qe.Err != nil {
		return qe.Err.Error()
	}
	return err.Error()
}

// Tracer receives debug traces. Implementations must not write to the
// caller's primary output.
type Tracer interface {
	TraceQuery(ctx context.Context, t Trace)
	TraceConnect(ctx context.Context, err error)
}

// HTMLTracer writes traces as HTML comments, safe to interleave with
// generated markup.
type HTMLTracer struct {
	W io.Writer
}

func (h HTMLTracer) TraceQuery(_ context.Context, t Trace) {
	_, _ = io.WriteString(h.W, FormatTrace(t))
}

func (h HTMLTracer) TraceConnect(_ context.Context, err error) {
	_, _ = io.WriteString(h.W, "\r\n<!-- CONNECTION ERROR: "+defang(traceErrorText(err))+"-->\r\n")
}

// FormatTrace renders t in the HTML comment form:
//
//	<!-- SQL QUERY:
//	SELECT * FROM t WHERE id='1'
//	Array
//	(
//	    [id] => 1
//	)
//	-->
//
// Lines end in \r\n around the header and the query.
func FormatTrace(t Trace) string {
	var b strings.Builder
	b.WriteString("\r\n<!-- SQL QUERY: \r\n")
	b.WriteString(defang(Substitute(t.Query, t.Params...)))
	b.WriteString("\r\n")
	b.WriteString(defang(Dump(t.Shaped())))
	b.WriteString("-->\r\n")
	return b.String()
}

// defang keeps payload text from closing the surrounding comment.
func defang(s string) string { return strings.ReplaceAll(s, "-->", "-- >") }

// LogTracer writes each trace as one structured slog record.
type LogTracer struct {
	Logger *slog.Logger
}

func (l LogTracer) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l LogTracer) TraceQuery(ctx context.Context, t Trace) {
	attrs := []slog.Attr{
		slog.String("operation", t.Op),
		slog.String("query", Substitute(t.Query, t.Params...)),
		slog.Float64("duration_ms", float64(t.Duration.Nanoseconds())/1e6),
		slog.String("result", Dump(t.Shaped())),
	}
	if t.Err != nil {
		attrs = append(attrs, slog.String("error", traceErrorText(t.Err)))
	}
	l.logger().LogAttrs(ctx, slog.LevelInfo, "sql query", attrs...)
}

func (l LogTracer) TraceConnect(ctx context.Context, err error) {
	l.logger().LogAttrs(ctx, slog.LevelError, "database connection error",
		slog.String("error", traceErrorText(err)))
}

// Dump renders v the way PHP's print_r does: maps and slices as indented
// "Array ( [key] => value )" blocks, scalars as plain text. Map keys are
// sorted.
func Dump(v any) string {
	var b strings.Builder
	dumpTo(&b, v, 0)
	return b.String()
}

func dumpTo(b *strings.Builder, v any, indent int) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() != reflect.Struct {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		byName := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
			byName[names[i]] = rv.MapIndex(k)
		}
		sort.Strings(names)
		b.WriteString("Array\n")
		dumpEntries(b, indent, len(names), func(i int) (string, any) {
			return names[i], byName[names[i]].Interface()
		})
	case reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); ok {
			b.WriteString(dumpScalar(v))
			return
		}
		b.WriteString("Array\n")
		dumpEntries(b, indent, rv.Len(), func(i int) (string, any) {
			return strconv.Itoa(i), rv.Index(i).Interface()
		})
	default:
		b.WriteString(dumpScalar(v))
	}
}

func dumpEntries(b *strings.Builder, indent, n int, entry func(int) (string, any)) {
	pad := strings.Repeat(" ", indent)
	b.WriteString(pad + "(\n")
	for i := 0; i < n; i++ {
		k, v := entry(i)
		b.WriteString(pad + "    [" + k + "] => ")
		dumpTo(b, v, indent+8)
		b.WriteString("\n")
	}
	b.WriteString(pad + ")\n")
}

// dumpScalar formats a single value: true is "1", false and nil are empty.
func dumpScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x { return "1" }
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.DateTime)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
