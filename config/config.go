package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`
	RedisTaskDB   int    `mapstructure:"REDIS_TASK_DB"`

	// Scheduling policy.
	BusinessHoursStart   int  `mapstructure:"BUSINESS_HOURS_START"`   // minutes from midnight
	BusinessHoursEnd     int  `mapstructure:"BUSINESS_HOURS_END"`     // minutes from midnight
	MaxAdvanceDays       int  `mapstructure:"MAX_ADVANCE_DAYS"`       // advance-booking ceiling
	MinLeadMinutes       int  `mapstructure:"MIN_LEAD_MINUTES"`       // lead time for non-emergency bookings
	ReservationTTLMin    int  `mapstructure:"RESERVATION_TTL_MIN"`    // soft reservation lifetime
	AvailabilityCacheTTL int  `mapstructure:"AVAILABILITY_CACHE_TTL"` // seconds
	StrikesBeforeSusp    int  `mapstructure:"STRIKES_BEFORE_SUSPENSION"`
	MaxReschedules       int  `mapstructure:"MAX_RESCHEDULES"`
	RescheduleNoticeMin  int  `mapstructure:"RESCHEDULE_NOTICE_MIN"`
	AllowSameDayResched  bool `mapstructure:"ALLOW_SAME_DAY_RESCHEDULE"`
	EmergencyOverrideLvl int  `mapstructure:"EMERGENCY_OVERRIDE_LEVEL"` // urgency at which capacity violations soften
	AllowBumping         bool `mapstructure:"ALLOW_BUMPING"`
	AllowExtendedHours   bool `mapstructure:"ALLOW_EXTENDED_HOURS"`
	AllowOverbooking     bool `mapstructure:"ALLOW_OVERBOOKING"`

	// Waitlist policy.
	QueueSweepSeconds   int `mapstructure:"QUEUE_SWEEP_SECONDS"`
	QueueOfferWindowMin int `mapstructure:"QUEUE_OFFER_WINDOW_MIN"` // claim window for freed-slot offers
	QueueMaxAutoBookTry int `mapstructure:"QUEUE_MAX_AUTOBOOK_ATTEMPTS"`

	// Emergency monitor.
	EmergencyMonitorSeconds int `mapstructure:"EMERGENCY_MONITOR_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("REDIS_TASK_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicore")

	viper.SetDefault("BUSINESS_HOURS_START", 8*60)
	viper.SetDefault("BUSINESS_HOURS_END", 18*60)
	viper.SetDefault("MAX_ADVANCE_DAYS", 180)
	viper.SetDefault("MIN_LEAD_MINUTES", 60)
	viper.SetDefault("RESERVATION_TTL_MIN", 10)
	viper.SetDefault("AVAILABILITY_CACHE_TTL", 300)
	viper.SetDefault("STRIKES_BEFORE_SUSPENSION", 3)
	viper.SetDefault("MAX_RESCHEDULES", 3)
	viper.SetDefault("RESCHEDULE_NOTICE_MIN", 120)
	viper.SetDefault("ALLOW_SAME_DAY_RESCHEDULE", true)
	viper.SetDefault("EMERGENCY_OVERRIDE_LEVEL", 8)
	viper.SetDefault("ALLOW_BUMPING", true)
	viper.SetDefault("ALLOW_EXTENDED_HOURS", true)
	viper.SetDefault("ALLOW_OVERBOOKING", true)

	viper.SetDefault("QUEUE_SWEEP_SECONDS", 60)
	viper.SetDefault("QUEUE_OFFER_WINDOW_MIN", 120)
	viper.SetDefault("QUEUE_MAX_AUTOBOOK_ATTEMPTS", 3)

	viper.SetDefault("EMERGENCY_MONITOR_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
