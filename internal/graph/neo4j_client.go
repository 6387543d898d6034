package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jClient opens a Bolt driver and checks that the server answers.
// Neptune's openCypher endpoint speaks Bolt too, so one client covers both.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, authToken(opts), func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &neo4jClient{driver: driver, database: opts.Database}, nil
}

func authToken(opts Options) neo4j.AuthToken {
	if opts.Username == "" {
		return neo4j.NoAuth()
	}
	return neo4j.BasicAuth(opts.Username, opts.Password, "")
}

// ExecuteWrite uses session.Run rather than a managed transaction: the driver
// would otherwise retry transient conflicts itself.
func (c *neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

func (c *neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, neo4j.AccessModeRead, cypher, params)
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *neo4jClient) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) (Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	cursor, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, err
	}
	rows, err := cursor.Collect(ctx)
	if err != nil {
		return Result{}, err
	}

	out := Result{Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		out.Records = append(out.Records, Record(row.AsMap()))
	}
	return out, nil
}
