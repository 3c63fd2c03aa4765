package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the tenant index and one compound unique index (tenant_id, field)
// per unique field, so uniqueness holds per tenant.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection, uniqueFields ...string) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: tenantField, Value: 1}}},
	}
	for _, f := range uniqueFields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: tenantField, Value: 1}, {Key: f, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
