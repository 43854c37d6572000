package ioschema

import (
	"context"
	"testing"

	"github.com/sparkify/sparkdl/internal/iodb"
	"github.com/sparkify/sparkdl/internal/iotesting"
	"github.com/sparkify/sparkdl/pkg/lifecycle"
	"github.com/sparkify/sparkdl/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManager_ImplementsInterface verifies manager
// implements lifecycle.SchemaManager interface.
func TestManager_ImplementsInterface(t *testing.T) {
	op := iodb.NewPgxOperator()
	var _ lifecycle.SchemaManager = NewManager(op)
}

func TestManager_NotConnected(t *testing.T) {
	mgr := NewManager(iodb.NewPgxOperator())
	cfg := iotesting.GetTestConfig()
	ctx := context.Background()

	assert.Error(t, mgr.Create(ctx, cfg))
	assert.Error(t, mgr.Migrate(ctx, cfg))
}

func TestManager_CreateMigrate(t *testing.T) {
	op := iodb.NewPgxOperator()
	iotesting.ConnectOrSkip(t, op)
	defer op.Close()

	ctx := context.Background()
	cfg := iotesting.GetTestConfig()
	mgr := NewManager(op)

	require.NoError(t, mgr.Create(ctx, cfg))
	for _, g := range schema.Generators() {
		exists, err := op.TableExists(ctx, g.TableName())
		require.NoError(t, err)
		assert.True(t, exists, g.TableName())
	}

	require.NoError(t, mgr.Migrate(ctx, cfg), "migration is idempotent")
}
