package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/fieldops/tenancy/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "jobs_tenant_id_name_key"}

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()
		assert.True(t, pg.IsDuplicateKeyError(dup))
		assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
		assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
		assert.False(t, pg.IsDuplicateKeyError(nil))
	})

	t.Run("constraint name", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "jobs_tenant_id_name_key", pg.ConstraintName(errors.Join(errors.New("x"), dup)))
		assert.Empty(t, pg.ConstraintName(errors.New("plain")))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(nil))
	})
}
