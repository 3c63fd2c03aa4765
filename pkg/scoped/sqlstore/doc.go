// Package sqlstore implements scoped.Store over a SQL table using sqlx and squirrel.
//
// Every statement except FindAll carries tenant_id = $n, and Update runs as
// SELECT ... FOR UPDATE followed by UPDATE ... WHERE id AND tenant_id inside one
// transaction. Per-tenant uniqueness belongs in the schema as UNIQUE (tenant_id, field);
// violations surface as scoped.ErrDuplicate.
//
//	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
//	store, err := sqlstore.New[*jobs.Job](db, sqlstore.Table{
//		Name:    "jobs",
//		Columns: []string{"id", "tenant_id", "name", "status"},
//	})
package sqlstore
