// Package database handles database connections for the ingestion pipeline.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly
// configure MySQL or SQLite connections based on the application's
// configuration. Connection strings may be supplied as a full DSN or built
// from individual host/port/user parts.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
