package engine

import "time"

// Config holds configuration for the Athena query engine.
type Config struct {
	// Region is the AWS region where queries are executed.
	Region string `mapstructure:"region" default:""`
	// Schema is the Athena database queries run against.
	Schema string `mapstructure:"schema" default:"default"`
	// ResultLocation is the s3:// staging location for query output.
	ResultLocation string `mapstructure:"result_location" default:""`
	// AccessKey is an optional static access key ID. When empty, the
	// default AWS credential chain is used.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the secret paired with AccessKey.
	SecretKey string `mapstructure:"secret_key" default:""`
	// PollIntervalSeconds is the initial interval between status checks.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" default:"2"`
	// PollTimeoutSeconds bounds the total time spent waiting for one query.
	PollTimeoutSeconds int `mapstructure:"poll_timeout_seconds" default:"1800"`
}

// WaitConfig derives the polling bounds from the engine configuration.
func (c Config) WaitConfig() WaitConfig {
	return WaitConfig{
		PollInterval: time.Duration(c.PollIntervalSeconds) * time.Second,
		Timeout:      time.Duration(c.PollTimeoutSeconds) * time.Second,
	}
}
