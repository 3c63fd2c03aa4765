// Package pg wires PostgreSQL for the tenancy kit: a pgx pool with connect retry,
// goose migrations from an fs.FS, an sqlx bridge over the same pool, and error
// classifiers used to map unique violations to per-tenant duplicate errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, tenantdir.Migrations, "migrations", cfg, log); err != nil {
//		return err
//	}
//
//	db := pg.SQLX(pool) // for sqlstore and backfill
package pg
