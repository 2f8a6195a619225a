// Package config loads process configuration from env vars and an
// optional config file, with sane defaults, backed by viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all backoffice process configuration.
type Config struct {
	// Transport (line-protocol helper reader/writer processes)
	Host          string
	TransportPort int

	// MongoDB (historical sink)
	MongoURI           string
	MongoRetentionDays int

	// Redis (durable historical counter)
	RedisAddr string

	// Kafka (alternate inbound connector)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	// S3 archival (opt-in: only active when S3Bucket is set)
	S3Bucket             string
	S3Region             string
	S3Prefix             string
	ArchiveIntervalHours int

	// GUIService throttle
	GUIThrottle   time.Duration
	GUIMaxSamples int

	// Metrics
	MetricsPort int
}

// Load reads configuration from BACKOFFICE_-prefixed environment
// variables (and, if present, a backoffice.yaml in the working
// directory), falling back to the defaults below.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("backoffice")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absence is not an error; env vars and defaults cover it

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("transport_port", 8200)
	v.SetDefault("mongo_uri", "mongodb://localhost:27017/backoffice")
	v.SetDefault("mongo_retention_days", 0)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("kafka_topic", "backoffice.feeds")
	v.SetDefault("kafka_group", "backoffice")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_prefix", "backoffice")
	v.SetDefault("archive_interval_hours", 6)
	v.SetDefault("gui_throttle_ms", 300)
	v.SetDefault("gui_max_samples", 100)
	v.SetDefault("metrics_port", 9100)

	return &Config{
		Host:                 v.GetString("host"),
		TransportPort:        v.GetInt("transport_port"),
		MongoURI:             v.GetString("mongo_uri"),
		MongoRetentionDays:   v.GetInt("mongo_retention_days"),
		RedisAddr:            v.GetString("redis_addr"),
		KafkaBrokers:         v.GetStringSlice("kafka_brokers"),
		KafkaTopic:           v.GetString("kafka_topic"),
		KafkaGroup:           v.GetString("kafka_group"),
		S3Bucket:             v.GetString("s3_bucket"),
		S3Region:             v.GetString("s3_region"),
		S3Prefix:             v.GetString("s3_prefix"),
		ArchiveIntervalHours: v.GetInt("archive_interval_hours"),
		GUIThrottle:          time.Duration(v.GetInt("gui_throttle_ms")) * time.Millisecond,
		GUIMaxSamples:        v.GetInt("gui_max_samples"),
		MetricsPort:          v.GetInt("metrics_port"),
	}
}
