package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: ErrConflict, want: true},
		{name: "wrapped sentinel", err: fmt.Errorf("create edge: %w", ErrConflict), want: true},
		{name: "neo4j deadlock", err: &neo4j.Neo4jError{Code: "Neo.TransientError.Transaction.DeadlockDetected", Msg: "deadlock"}, want: true},
		{name: "neo4j lock timeout", err: &neo4j.Neo4jError{Code: "Neo.TransientError.Transaction.LockClientStopped"}, want: true},
		{name: "neo4j syntax", err: &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError"}, want: false},
		{name: "neptune via neo4j error", err: &neo4j.Neo4jError{Code: "Neo.DatabaseError.General.UnknownError", Msg: "Operation failed due to conflicting concurrent operations (ConcurrentModificationException)"}, want: true},
		{name: "neptune plain", err: errors.New("{\"code\":\"ConcurrentModificationException\"}"), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConflict(tt.err))
		})
	}
}
