package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	StoragePath     string
	ReportOutputDir string

	NATSURL              string
	NATSSubject          string
	ReportPublishEnabled bool

	SeatingSheetMarker string
	AdhocRoomName      string
	CellMatchPolicy    string
	TextMatchPolicy    string
	PDFRoomMode        string
	CohortTablePath    string

	CollegeName string
	MaxUploadMB int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		StoragePath:     mustEnv("STORAGE_PATH", "./data/uploads"),
		ReportOutputDir: mustEnv("REPORT_OUTPUT_DIR", "./data/reports"),

		NATSURL:              mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject:          mustEnv("NATS_SUBJECT", "attendance.reports"),
		ReportPublishEnabled: mustEnvBool("REPORT_PUBLISH_ENABLED", false),

		SeatingSheetMarker: mustEnv("SEATING_SHEET_MARKER", "Seating"),
		AdhocRoomName:      mustEnv("ADHOC_ROOM_NAME", "PDF_Extracted_Room"),
		CellMatchPolicy:    mustEnv("CELL_MATCH_POLICY", "alphanumeric"),
		TextMatchPolicy:    mustEnv("TEXT_MATCH_POLICY", "digit-prefixed"),
		PDFRoomMode:        mustEnv("PDF_ROOM_MODE", "single"),
		CohortTablePath:    mustEnv("COHORT_TABLE_PATH", ""),

		CollegeName: mustEnv("COLLEGE_NAME", "SVIT College"),
		MaxUploadMB: mustEnvInt("MAX_UPLOAD_MB", 20),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
