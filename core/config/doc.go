// Package config provides configuration management for the comparison tool.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Storage: S3/MinIO credentials and connection settings
//   - Athena: query engine region, schema, result staging location, polling bounds
//   - Log: Logging level and format
//
// Run-specific parameters (bucket names, inventory paths, work locations) are
// passed as command-line flags rather than ambient configuration; flags for
// engine parameters override their configured counterparts.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Athena.Region)
package config
