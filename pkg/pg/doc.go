// Package pg connects to PostgreSQL through a pgx connection pool and applies
// goose migrations shipped inside the binary.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
//
// Error classifiers (IsNotFoundError, IsDuplicateKeyError, ...) keep
// repository code free of pgx and SQLSTATE details.
package pg
