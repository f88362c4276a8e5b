package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvClinicDayStart    = "CLINIC_DAY_START"
	EnvClinicDayEnd      = "CLINIC_DAY_END"
	EnvClinicSlotMinutes = "CLINIC_SLOT_MINUTES"
	EnvClinicWeekStart   = "CLINIC_WEEK_START"
	EnvClinicTimeZone    = "CLINIC_TIMEZONE"

	EnvChairResourceID    = "CHAIR_RESOURCE_ID"
	EnvFacilityResourceID = "FACILITY_RESOURCE_ID"

	EnvResourceLockTTL = "RESOURCE_LOCK_TTL"

	EnvPatientDirectoryURL     = "PATIENT_DIRECTORY_URL"
	EnvPatientDirectoryTimeout = "PATIENT_DIRECTORY_TIMEOUT"
	EnvDiagnosticsURL          = "DIAGNOSTICS_URL"
	EnvDiagnosticsTimeout      = "DIAGNOSTICS_TIMEOUT"
)
