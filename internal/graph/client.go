package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is the statement-level contract the repository needs from a graph
// engine. Each call runs one auto-commit statement, so a conflicting write
// fails fast and the caller owns the retry decision.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the rows a statement returned.
type Result struct {
	Records []Record
}

// Empty reports whether the statement matched nothing.
func (r Result) Empty() bool {
	return len(r.Records) == 0
}

// Record maps RETURN aliases to driver values.
type Record map[string]any

// String returns the value under key as a string, or "" if it is absent or
// not textual.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Float returns the numeric value under key. Bolt integers arrive as int64.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Time decodes a temporal value stored either natively or as an RFC 3339
// string. The result is in UTC.
func (r Record) Time(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		if v == "" {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
