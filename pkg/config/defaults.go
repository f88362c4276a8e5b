package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "clinicdesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultClinicDayStart    = "09:00"
	DefaultClinicDayEnd      = "18:00"
	DefaultClinicSlotMinutes = 60
	DefaultClinicWeekStart   = "Sunday"
	DefaultClinicTimeZone    = "UTC"

	// A Regular booking that names no resources occupies the chair; a
	// Blocked booking occupies the facility. Kept configurable so whether
	// Blocked competes with the operation pool is a deployment decision.
	DefaultChairResourceID    = "chair-1"
	DefaultFacilityResourceID = "facility"

	DefaultResourceLockTTL = 10 * time.Second

	DefaultPatientDirectoryTimeout = 5 * time.Second
	DefaultDiagnosticsTimeout      = 30 * time.Second
)
