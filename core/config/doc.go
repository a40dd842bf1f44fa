// Package config provides configuration management for the ingestion pipeline.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Database: MySQL/SQLite connection details
//   - Storage: S3/MinIO credentials and bucket settings for CSV drops
//   - Catalog: Open Library client tuning (rate limit, retries, timeout)
//   - Metrics: Prometheus endpoint address
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Host)
package config
