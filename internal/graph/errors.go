package graph

import (
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrConflict is the engine-neutral optimistic concurrency signal. Fakes return
// it directly; real drivers are recognised by IsConflict.
var ErrConflict = errors.New("graph: concurrent modification")

const (
	neo4jTransientTxPrefix = "Neo.TransientError.Transaction."
	neptuneConflictMarker  = "ConcurrentModificationException"
)

// IsConflict reports whether err means the engine aborted the statement because
// it overlapped with another transaction and the write should be tried again.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if strings.HasPrefix(neoErr.Code, neo4jTransientTxPrefix) {
			return true
		}
		if strings.Contains(neoErr.Code, neptuneConflictMarker) || strings.Contains(neoErr.Msg, neptuneConflictMarker) {
			return true
		}
		return false
	}

	// Neptune surfaces some aborts as plain driver errors.
	return strings.Contains(err.Error(), neptuneConflictMarker)
}
