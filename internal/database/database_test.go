package database

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDescriber struct {
	statuses map[string]types.TableStatus
	calls    []string
}

func (f *fakeDescriber) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	name := aws.ToString(in.TableName)
	f.calls = append(f.calls, name)

	status, ok := f.statuses[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}

	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName, TableStatus: status},
	}, nil
}

func newTestDatabase(client TableDescriber) *Database {
	logger := zerolog.Nop()
	return NewWithClient(client, []string{"users", "trucks", "reservations"}, &logger)
}

func TestCheck(t *testing.T) {
	client := &fakeDescriber{statuses: map[string]types.TableStatus{
		"users":  types.TableStatusActive,
		"trucks": types.TableStatusUpdating,
	}}
	db := newTestDatabase(client)

	statuses := db.Check(context.Background())
	require.Len(t, statuses, 3)

	assert.Equal(t, []string{"users", "trucks", "reservations"}, client.calls)

	assert.True(t, statuses[0].Healthy)
	assert.NoError(t, statuses[0].Err)

	assert.False(t, statuses[1].Healthy)
	assert.Equal(t, "UPDATING", statuses[1].Status)
	assert.Error(t, statuses[1].Err)

	var notFound *types.ResourceNotFoundException
	assert.False(t, statuses[2].Healthy)
	assert.True(t, errors.As(statuses[2].Err, &notFound))
}

func TestPing(t *testing.T) {
	healthy := &fakeDescriber{statuses: map[string]types.TableStatus{
		"users":        types.TableStatusActive,
		"trucks":       types.TableStatusActive,
		"reservations": types.TableStatusActive,
	}}
	assert.NoError(t, newTestDatabase(healthy).Ping(context.Background()))

	missing := &fakeDescriber{statuses: map[string]types.TableStatus{
		"users": types.TableStatusActive,
	}}
	err := newTestDatabase(missing).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trucks")
}

func TestTablesIsACopy(t *testing.T) {
	db := newTestDatabase(&fakeDescriber{})

	tables := db.Tables()
	tables[0] = "mutated"

	assert.Equal(t, "users", db.Tables()[0])
}
