package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/fieldops/tenancy/pkg/scoped"
)

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	t.Run("sorted keys", func(t *testing.T) {
		t.Parallel()
		f, err := buildFilter(map[string]any{"status": "open", "name": "roof"})
		require.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "name", Value: "roof"}, {Key: "status", Value: "open"}}, f)
	})

	tests := []string{"tenant_id", "$where", ""}
	for _, key := range tests {
		t.Run("rejects "+key, func(t *testing.T) {
			t.Parallel()
			_, err := buildFilter(map[string]any{key: "x"})
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestFindOptions(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, findOptions(scoped.Query{OrderBy: "name DESC", Limit: 5, Offset: 10}))
}
