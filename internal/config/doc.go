// Package config loads the application configuration.
//
// Values come from environment variables prefixed with SALESBI_, merged over
// an optional YAML file (config.yaml, configs/config.yaml, or the path in
// SALESBI_CONFIG_FILE). Variables set in the environment take precedence
// over the file, and the file takes precedence over defaults:
//
//	SALESBI_SERVER_PORT=8080
//	SALESBI_SOURCE_DATA_FILE=data/vendas.xlsx
//	SALESBI_SOURCE_REFERENCE_FILE=data/precos.xlsx
//	SALESBI_SOURCE_CACHE_TTL=10m
//	SALESBI_SECURITY_SHARED_SECRET_HASH='$2a$10$...'
//	SALESBI_ANALYTICS_AGING_BOUNDARIES=30,60,90
//
// The Analytics section carries the business thresholds of the pipeline:
// commission tier cut-offs, settlement day bounds, the due-date year sanity
// range and the aging bucket boundaries.
package config
