package server

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// Open or create the DB
func openDB(log logs.Log, config dbh.DBConfig, flags dbh.DBConnectFlags) (*gorm.DB, error) {
	log.Infof("Opening library DB (%v)", config.LogSafeDescription())
	return dbh.OpenDB(log, config, migrations(log, config.Driver), flags)
}

func migrations(log logs.Log, driver string) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	pk := "BIGSERIAL PRIMARY KEY"
	if driver == dbh.DriverSqlite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE biblioteca(
			id `+pk+`,
			created_at BIGINT NOT NULL,
			timestamp TEXT NOT NULL,
			detecciones TEXT,
			url TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			media_id TEXT NOT NULL,
			thumbnail_id TEXT NOT NULL,
			has_detection BOOLEAN NOT NULL,
			original_filename TEXT NOT NULL,
			source TEXT NOT NULL,
			confidence_average REAL NOT NULL,
			detection_count INT NOT NULL
		);
		CREATE INDEX idx_biblioteca_created_at ON biblioteca(created_at);
	`))

	return migs
}
