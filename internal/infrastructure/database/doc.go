// Package database provides the SQLite connection used by the psusim change
// journal.
//
// It opens the file with WAL mode and a busy timeout, restricts the pool to
// a single connection, and applies versioned SQL migrations from any fs.FS
// (normally the embedded migrations package).
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
//	    return err
//	}
package database
