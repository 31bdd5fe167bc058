package server

import (
	"os"
	"strconv"
	"time"
)

// Config is assembled from the environment. Every knob has a default that
// yields a runnable local setup: static data source, casbin-less transit
// provider left unconfigured only if RIGHTS_PROVIDER demands it.
type Config struct {
	HTTPAddr string

	RulesPath    string
	RulesPoll    time.Duration
	ResetWindow  time.Duration
	SweepEvery   time.Duration
	Application  string
	RightsSource string

	TransitBaseURL string
	TransitAPIKey  string

	CasbinModelPath  string
	CasbinPolicyPath string

	DataSource  string
	DatasetPath string
}

func ConfigFromEnv() Config {
	return Config{
		HTTPAddr: getenvDefault("HTTP_ADDR", ":8080"),

		RulesPath:    getenvDefault("GATEKEEPR_RULES_PATH", "rules.json"),
		RulesPoll:    msFromEnv("GATEKEEPR_RULES_POLL_MS", 5000),
		ResetWindow:  msFromEnv("GATEKEEPR_RESET_WINDOW_MS", 60000),
		SweepEvery:   msFromEnv("GATEKEEPR_SWEEP_MS", 60000),
		Application:  os.Getenv("GATEKEEPR_APPLICATION_ID"),
		RightsSource: getenvDefault("RIGHTS_PROVIDER", "transit"),

		TransitBaseURL: os.Getenv("TRANSIT_BASE_URL"),
		TransitAPIKey:  os.Getenv("TRANSIT_API_KEY"),

		CasbinModelPath:  os.Getenv("CASBIN_MODEL_PATH"),
		CasbinPolicyPath: os.Getenv("CASBIN_POLICY_PATH"),

		DataSource:  getenvDefault("DATA_SOURCE", "static"),
		DatasetPath: getenvDefault("GATEKEEPR_DATASET_PATH", "dataset.yaml"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// msFromEnv reads a millisecond count; non-numeric or non-positive values
// fall back to the default.
func msFromEnv(key string, def int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Millisecond
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}
