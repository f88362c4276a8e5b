package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clinicdesk/pkg/client"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/timegrid"
)

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	ClinicDayStart    string
	ClinicDayEnd      string
	ClinicSlotMinutes int
	ClinicWeekStart   string
	ClinicTimeZone    string

	ChairResourceID    string
	FacilityResourceID string

	ResourceLockTTL time.Duration

	PatientDirectoryURL     string
	PatientDirectoryTimeout time.Duration
	DiagnosticsURL          string
	DiagnosticsTimeout      time.Duration

	Location *time.Location

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ClinicDayStart:    getEnvStr(EnvClinicDayStart, DefaultClinicDayStart),
		ClinicDayEnd:      getEnvStr(EnvClinicDayEnd, DefaultClinicDayEnd),
		ClinicSlotMinutes: getEnvNum(EnvClinicSlotMinutes, DefaultClinicSlotMinutes),
		ClinicWeekStart:   getEnvStr(EnvClinicWeekStart, DefaultClinicWeekStart),
		ClinicTimeZone:    getEnvStr(EnvClinicTimeZone, DefaultClinicTimeZone),

		ChairResourceID:    getEnvStr(EnvChairResourceID, DefaultChairResourceID),
		FacilityResourceID: getEnvStr(EnvFacilityResourceID, DefaultFacilityResourceID),

		ResourceLockTTL: getEnvDuration(EnvResourceLockTTL, DefaultResourceLockTTL),

		PatientDirectoryURL:     getEnvStr(EnvPatientDirectoryURL, ""),
		PatientDirectoryTimeout: getEnvDuration(EnvPatientDirectoryTimeout, DefaultPatientDirectoryTimeout),
		DiagnosticsURL:          getEnvStr(EnvDiagnosticsURL, ""),
		DiagnosticsTimeout:      getEnvDuration(EnvDiagnosticsTimeout, DefaultDiagnosticsTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	loc, err := time.LoadLocation(cfg.ClinicTimeZone)
	if err != nil {
		cfg.Log.Fatal("Invalid clinic timezone", "timezone", cfg.ClinicTimeZone, "error", err)
	}
	cfg.Location = loc

	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// TimeGrid translates clinic settings into the pure grid settings.
func (cfg *Config) TimeGrid() timegrid.Settings {
	return timegrid.Settings{
		DayStartMin: minuteOfDay(cfg.ClinicDayStart),
		DayEndMin:   minuteOfDay(cfg.ClinicDayEnd),
		SlotMinutes: cfg.ClinicSlotMinutes,
		WeekStart:   weekdayNames[cfg.ClinicWeekStart],
		Location:    cfg.Location,
	}
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"RequestTimeout":   cfg.RequestTimeout,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"ResourceLockTTL":  cfg.ResourceLockTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if !timeOfDayRegex.MatchString(cfg.ClinicDayStart) {
		errs = append(errs, fmt.Sprintf("ClinicDayStart must be in HH:MM format, got: %s", cfg.ClinicDayStart))
	}
	if !timeOfDayRegex.MatchString(cfg.ClinicDayEnd) {
		errs = append(errs, fmt.Sprintf("ClinicDayEnd must be in HH:MM format, got: %s", cfg.ClinicDayEnd))
	}
	if timeOfDayRegex.MatchString(cfg.ClinicDayStart) && timeOfDayRegex.MatchString(cfg.ClinicDayEnd) &&
		minuteOfDay(cfg.ClinicDayEnd) <= minuteOfDay(cfg.ClinicDayStart) {
		errs = append(errs, fmt.Sprintf("ClinicDayEnd (%s) must be after ClinicDayStart (%s)", cfg.ClinicDayEnd, cfg.ClinicDayStart))
	}
	if cfg.ClinicSlotMinutes < 5 || cfg.ClinicSlotMinutes > 480 {
		errs = append(errs, fmt.Sprintf("ClinicSlotMinutes must be between 5 and 480, got: %d", cfg.ClinicSlotMinutes))
	}
	if _, ok := weekdayNames[cfg.ClinicWeekStart]; !ok {
		errs = append(errs, fmt.Sprintf("ClinicWeekStart must be a weekday name, got: %s", cfg.ClinicWeekStart))
	}

	if cfg.ChairResourceID == "" {
		errs = append(errs, "ChairResourceID cannot be empty")
	}
	if cfg.FacilityResourceID == "" {
		errs = append(errs, "FacilityResourceID cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded",
		"mongo_database", cfg.MongoDatabaseName,
		"port", cfg.Port,
		"clinic_day_start", cfg.ClinicDayStart,
		"clinic_day_end", cfg.ClinicDayEnd,
		"clinic_slot_minutes", cfg.ClinicSlotMinutes,
		"clinic_week_start", cfg.ClinicWeekStart,
		"clinic_timezone", cfg.ClinicTimeZone,
		"chair_resource_id", cfg.ChairResourceID,
		"facility_resource_id", cfg.FacilityResourceID,
		"resource_lock_ttl", cfg.ResourceLockTTL,
		"patient_directory_url", cfg.PatientDirectoryURL,
		"diagnostics_url", cfg.DiagnosticsURL,
	)
}

func minuteOfDay(hhmm string) int {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
