package ingest

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/logbarn/logbarn/pkg/types"
)

// pathPrefix anchors domain extraction in agent-reported log paths
const pathPrefix = "/var/www/"

// TIMESTAMP column range; values outside it fall back to receipt time
var (
	minTimestamp = time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)
	maxTimestamp = time.Date(2038, 1, 19, 0, 0, 0, 0, time.UTC)
)

// millisCutoff separates unix seconds from unix milliseconds
const millisCutoff = int64(1) << 40

// maxCodeLen is the http_codes.code column width; a wider value cannot
// round-trip through the lookup table
const maxCodeLen = 8

// wireRecord is the strict view of one ingest array element. Agents send
// arbitrary extra fields; those survive untouched in raw_data only.
type wireRecord struct {
	SourceFile   string      `json:"source_file"`
	Host         string      `json:"host"`
	LogTimestamp interface{} `json:"log_timestamp"`
	Timestamp    interface{} `json:"timestamp"`
	Remote       string      `json:"remote"`
	Client       string      `json:"client"`
	Code         interface{} `json:"code"`
}

// codeString coerces the status code field, which agents send as either a
// JSON string or a number. Values wider than maxCodeLen count as absent.
func (w *wireRecord) codeString() string {
	var code string
	switch v := w.Code.(type) {
	case string:
		code = strings.TrimSpace(v)
	case float64:
		code = strconv.Itoa(int(v))
	default:
		return ""
	}
	if len(code) > maxCodeLen {
		return ""
	}
	return code
}

func (w *wireRecord) timestampValue() interface{} {
	if w.LogTimestamp != nil {
		return w.LogTimestamp
	}
	return w.Timestamp
}

// remote prefers the remote field; the client alias may carry a :port
// suffix, which is stripped
func (w *wireRecord) remote() string {
	if w.Remote != "" {
		return w.Remote
	}
	if w.Client == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(w.Client); err == nil {
		return host
	}
	return w.Client
}

// domainFromSourceFile extracts the path segment after /var/www/ and
// before the next slash
func domainFromSourceFile(path string) (string, bool) {
	idx := strings.Index(path, pathPrefix)
	if idx < 0 {
		return "", false
	}
	rest := path[idx+len(pathPrefix):]
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 {
		return "", false
	}
	return rest[:slash], true
}

// classifyLogType maps the filename to a record type. Unrecognized names
// default to error; the bool reports whether the suffix was recognized.
func classifyLogType(path string) (types.LogType, bool) {
	switch {
	case strings.HasSuffix(path, "/access.log"):
		return types.LogTypeAccess, true
	case strings.HasSuffix(path, "/error.log"):
		return types.LogTypeError, true
	default:
		return types.LogTypeError, false
	}
}

// parseTimestamp accepts RFC 3339, the bare MySQL datetime layout (read
// as UTC), and numeric unix seconds or milliseconds. Anything else, and
// anything outside the storable range, resolves to now.
func parseTimestamp(v interface{}, now time.Time) time.Time {
	var ts time.Time
	switch value := v.(type) {
	case string:
		ts = parseTimeString(value)
	case float64:
		ts = parseUnix(int64(value))
	}
	if ts.IsZero() || ts.Before(minTimestamp) || ts.After(maxTimestamp) {
		return now
	}
	return ts.UTC()
}

func parseTimeString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
		return ts
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return parseUnix(n)
	}
	return time.Time{}
}

func parseUnix(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n >= millisCutoff {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
