package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}

		if migrations[0].Name != "create_cache_tables" {
			t.Errorf("expected first migration name create_cache_tables, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"tracks", "playlists", "playlist_tracks", "search_cache"} {
			if _, err := db.Exec("SELECT cached_at FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		version, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("failed to read schema version: %v", err)
		}
		if version == 0 {
			t.Error("expected non-zero schema version")
		}

		current, err := CurrentMigration(db)
		if err != nil {
			t.Fatalf("failed to read current migration: %v", err)
		}
		if current == nil || current.Version != version || current.Name == "" {
			t.Errorf("expected named migration at version %d, got %+v", version, current)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		newVersion, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("failed to read schema version after rollback: %v", err)
		}
		if newVersion >= version {
			t.Errorf("expected schema version to decrease after rollback, got %d (was %d)", newVersion, version)
		}

		if newVersion == 0 {
			if current, err := CurrentMigration(db); err != nil || current != nil {
				t.Errorf("expected no current migration, got %+v (%v)", current, err)
			}
			if err := RollbackMigration(db); err == nil {
				t.Error("expected error rolling back with nothing applied")
			}
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Cascading Deletes", func(t *testing.T) {
		db, err := OpenStore(":memory:")
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer db.Close()

		stmts := []string{
			`INSERT INTO playlists (id, name, track_count, uri, owner) VALUES ('p1', 'Mix', 1, 'spotify:playlist:p1', 'me')`,
			`INSERT INTO tracks (id, name, artists, album, uri, duration_ms, popularity) VALUES ('t1', 'Song', '["A"]', 'LP', 'spotify:track:t1', 1000, 50)`,
			`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES ('p1', 't1', 0)`,
			`DELETE FROM playlists WHERE id = 'p1'`,
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				t.Fatalf("failed to exec %q: %v", stmt, err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlist_tracks").Scan(&count); err != nil {
			t.Fatalf("failed to count playlist_tracks: %v", err)
		}
		if count != 0 {
			t.Errorf("expected membership rows to cascade, got %d", count)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	script := `-- header; with a semicolon
CREATE TABLE a (id TEXT); -- trailing
CREATE TABLE b (id TEXT);
`
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
}
