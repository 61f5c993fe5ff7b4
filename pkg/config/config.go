package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// AMQPURL enables the RabbitMQ publisher when set; empty falls back
	// to the logging publisher.
	AMQPURL string

	// SequenceScope selects the journal reference numbering scope:
	// "global" for one sequence, "branch" for one per branch.
	SequenceScope string

	// Reconciliation worker tuning.
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	ReconcileBatchSize  int
	ReconcileWorkers    int

	// Chart-of-accounts codes the event handlers post against.
	ReceivableAccountCode      string
	CashAccountCode            string
	DeferredRevenueAccountCode string
	TuitionRevenueAccountCode  string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "institute-ledger")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("SEQUENCE_SCOPE", "branch")
	viper.SetDefault("RECONCILE_INTERVAL", "1m")
	viper.SetDefault("RECONCILE_STALE_AFTER", "5m")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 50)
	viper.SetDefault("RECONCILE_WORKERS", 4)
	viper.SetDefault("ACCT_RECEIVABLE", "1200")
	viper.SetDefault("ACCT_CASH", "1000")
	viper.SetDefault("ACCT_DEFERRED_REVENUE", "2300")
	viper.SetDefault("ACCT_TUITION_REVENUE", "4000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.AMQPURL = viper.GetString("AMQP_URL")

	cfg.SequenceScope = viper.GetString("SEQUENCE_SCOPE")
	if cfg.SequenceScope != "global" && cfg.SequenceScope != "branch" {
		log.Printf("Warning: Invalid SEQUENCE_SCOPE ('%s'). Defaulting to branch.\n", cfg.SequenceScope)
		cfg.SequenceScope = "branch"
	}

	cfg.ReconcileInterval = durationOrDefault("RECONCILE_INTERVAL", time.Minute)
	cfg.ReconcileStaleAfter = durationOrDefault("RECONCILE_STALE_AFTER", 5*time.Minute)
	cfg.ReconcileBatchSize = viper.GetInt("RECONCILE_BATCH_SIZE")
	cfg.ReconcileWorkers = viper.GetInt("RECONCILE_WORKERS")

	cfg.ReceivableAccountCode = viper.GetString("ACCT_RECEIVABLE")
	cfg.CashAccountCode = viper.GetString("ACCT_CASH")
	cfg.DeferredRevenueAccountCode = viper.GetString("ACCT_DEFERRED_REVENUE")
	cfg.TuitionRevenueAccountCode = viper.GetString("ACCT_TUITION_REVENUE")

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		return fallback
	}
	return d
}
