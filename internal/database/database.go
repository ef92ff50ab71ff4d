// Package database contains the DynamoDB client used to check that the
// backend's tables are reachable.
//
// The gateway never reads or writes items; the backend handler owns the
// data. What the gateway does own is the answer to "can the backend's
// storage be reached with the configured table names", which /status and
// startup logging both rely on.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/deppfellow/fleet-gateway/internal/config"
	"github.com/rs/zerolog"
)

// TableDescriber is the part of the DynamoDB API the gateway needs.
// *dynamodb.Client satisfies it.
type TableDescriber interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Database wraps the DynamoDB client, the table names to check and a logger.
type Database struct {
	Client TableDescriber
	tables []string
	log    *zerolog.Logger
}

// TableStatus is the outcome of checking one table.
type TableStatus struct {
	Table        string        `json:"table"`
	Healthy      bool          `json:"healthy"`
	Status       string        `json:"status,omitempty"`
	ResponseTime time.Duration `json:"-"`
	Err          error         `json:"-"`
}

// DatabasePingTimeout bounds the startup check, in seconds.
const DatabasePingTimeout = 10

// New creates the DynamoDB client for the handler's tables and runs one
// check.
//
// An unreachable table is logged, not returned: the backend may be deployed
// after the gateway, and /status keeps reporting until it is.
func New(cfg *config.Config, awsCfg aws.Config, logger *zerolog.Logger) *Database {
	database := NewWithClient(dynamodb.NewFromConfig(awsCfg), cfg.Handler.Tables(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("backend tables are not reachable yet")
	} else {
		logger.Info().Strs("tables", database.tables).Msg("backend tables reachable")
	}

	return database
}

// NewWithClient wraps an existing client.
func NewWithClient(client TableDescriber, tables []string, logger *zerolog.Logger) *Database {
	return &Database{
		Client: client,
		tables: append([]string(nil), tables...),
		log:    logger,
	}
}

// Tables returns the checked table names.
func (db *Database) Tables() []string {
	return append([]string(nil), db.tables...)
}

// Check describes every table and reports each outcome in table order.
// A table is healthy when DescribeTable succeeds and the table is ACTIVE.
func (db *Database) Check(ctx context.Context) []TableStatus {
	statuses := make([]TableStatus, 0, len(db.tables))

	for _, table := range db.tables {
		start := time.Now()
		out, err := db.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})

		status := TableStatus{Table: table, ResponseTime: time.Since(start)}
		switch {
		case err != nil:
			status.Err = err
		case out.Table == nil:
			status.Err = fmt.Errorf("table %s: empty description", table)
		default:
			status.Status = string(out.Table.TableStatus)
			status.Healthy = out.Table.TableStatus == types.TableStatusActive
			if !status.Healthy {
				status.Err = fmt.Errorf("table %s is %s", table, status.Status)
			}
		}

		statuses = append(statuses, status)
	}

	return statuses
}

// Ping returns the first failing table check, or nil.
func (db *Database) Ping(ctx context.Context) error {
	for _, status := range db.Check(ctx) {
		if status.Err != nil {
			return fmt.Errorf("failed to describe table %s: %w", status.Table, status.Err)
		}
	}
	return nil
}

// Close logs the shutdown. The SDK client holds nothing to release.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database client")
	return nil
}
