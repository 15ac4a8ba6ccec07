package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for file unmarshalling. It is filled
// from the current Config first, so keys missing from the file keep their
// value.
type fileConfig struct {
	APIBaseURL      string         `json:"api_base_url" yaml:"api_base_url"`
	APIToken        string         `json:"api_token" yaml:"api_token"`
	Principal       string         `json:"principal" yaml:"principal"`
	StoreDriver     string         `json:"store_driver" yaml:"store_driver"`
	StoreDSN        string         `json:"store_dsn" yaml:"store_dsn"`
	SyncConcurrency int            `json:"sync_concurrency" yaml:"sync_concurrency"`
	SyncInterval    timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	RequestTimeout  timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	DemoMode        bool           `json:"demo_mode" yaml:"demo_mode"`
	AccessPolicy    string         `json:"access_policy" yaml:"access_policy"`
	CacheVersion    string         `json:"cache_version" yaml:"cache_version"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	LogFormat       string         `json:"log_format" yaml:"log_format"`
	S3Bucket        string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3Endpoint      string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey     string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	MetricsAddr     string         `json:"metrics_addr" yaml:"metrics_addr"`
}

func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fc := fileConfig{
		APIBaseURL:      cfg.APIBaseURL,
		APIToken:        cfg.APIToken,
		Principal:       cfg.Principal,
		StoreDriver:     cfg.StoreDriver,
		StoreDSN:        cfg.StoreDSN,
		SyncConcurrency: cfg.SyncConcurrency,
		SyncInterval:    timex.Duration{Duration: cfg.SyncInterval},
		RequestTimeout:  timex.Duration{Duration: cfg.RequestTimeout},
		DemoMode:        cfg.DemoMode,
		AccessPolicy:    cfg.AccessPolicy,
		CacheVersion:    cfg.CacheVersion,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		S3Bucket:        cfg.S3Bucket,
		S3Region:        cfg.S3Region,
		S3Endpoint:      cfg.S3Endpoint,
		S3AccessKey:     cfg.S3AccessKey,
		S3SecretKey:     cfg.S3SecretKey,
		MetricsAddr:     cfg.MetricsAddr,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.APIBaseURL = fc.APIBaseURL
	cfg.APIToken = fc.APIToken
	cfg.Principal = fc.Principal
	cfg.StoreDriver = fc.StoreDriver
	cfg.StoreDSN = fc.StoreDSN
	cfg.SyncConcurrency = fc.SyncConcurrency
	cfg.SyncInterval = fc.SyncInterval.Duration
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	cfg.DemoMode = fc.DemoMode
	cfg.AccessPolicy = fc.AccessPolicy
	cfg.CacheVersion = fc.CacheVersion
	cfg.LogLevel = fc.LogLevel
	cfg.LogFormat = fc.LogFormat
	cfg.S3Bucket = fc.S3Bucket
	cfg.S3Region = fc.S3Region
	cfg.S3Endpoint = fc.S3Endpoint
	cfg.S3AccessKey = fc.S3AccessKey
	cfg.S3SecretKey = fc.S3SecretKey
	cfg.MetricsAddr = fc.MetricsAddr
	return nil
}
