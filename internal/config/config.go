package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and
// flags. It is constructed once at process start and passed by reference;
// protocol logic never performs ambient lookups.
type Config struct {
	RunAddress  string
	DatabaseURI string

	GatewayAddress   string
	GatewayIP        string
	MerchantServerIP string
	MerchantID       string
	MerchantKey      string
	// CallbackURL is the return URL advertised in the authentication
	// block for the external 3-D Secure bridge.
	CallbackURL string

	AMQPAddress  string
	AdminKeyHash string

	ShippingFee decimal.Decimal

	SweepInterval   time.Duration
	SweepCutoff     time.Duration
	SweepBatch      int
	WorkerPoolSize  int
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress      = ":8080"
	defaultShippingFee     = "35.00"
	defaultSweepInterval   = time.Minute
	defaultSweepCutoff     = 30 * time.Minute
	defaultSweepBatch      = 32
	defaultWorkerPoolSize  = 4
	defaultShutdownTimeout = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		GatewayAddress:   getString(lookup, "GATEWAY_ADDRESS", ""),
		GatewayIP:        getString(lookup, "GATEWAY_IP", ""),
		MerchantServerIP: getString(lookup, "MERCHANT_SERVER_IP", ""),
		MerchantID:       getString(lookup, "MERCHANT_ID", ""),
		MerchantKey:      getString(lookup, "MERCHANT_KEY", ""),
		CallbackURL:      getString(lookup, "CALLBACK_URL", ""),
		AMQPAddress:      getString(lookup, "AMQP_ADDRESS", ""),
		AdminKeyHash:     getString(lookup, "ADMIN_KEY_HASH", ""),
		SweepInterval:    getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepCutoff:      getDuration(lookup, "SWEEP_CUTOFF", defaultSweepCutoff),
		SweepBatch:       getInt(lookup, "SWEEP_BATCH", defaultSweepBatch),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("payserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shippingStr        = getString(lookup, "SHIPPING_FEE", defaultShippingFee)
		sweepIntervalStr   = cfg.SweepInterval.String()
		sweepCutoffStr     = cfg.SweepCutoff.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.GatewayAddress, "g", cfg.GatewayAddress, "Card gateway endpoint URL")
	fs.StringVar(&cfg.GatewayIP, "gateway-ip", cfg.GatewayIP, "Gateway host IP header value")
	fs.StringVar(&cfg.MerchantServerIP, "server-ip", cfg.MerchantServerIP, "Merchant server IP header value")
	fs.StringVar(&cfg.MerchantID, "merchant-id", cfg.MerchantID, "Merchant identifier")
	fs.StringVar(&cfg.MerchantKey, "merchant-key", cfg.MerchantKey, "Merchant credential key")
	fs.StringVar(&cfg.CallbackURL, "callback-url", cfg.CallbackURL, "3-D Secure return URL")
	fs.StringVar(&cfg.AMQPAddress, "amqp", cfg.AMQPAddress, "AMQP broker URL for order notifications")
	fs.StringVar(&cfg.AdminKeyHash, "admin-key-hash", cfg.AdminKeyHash, "bcrypt hash of the admin API key")
	fs.StringVar(&shippingStr, "shipping-fee", shippingStr, "Flat shipping fee")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between stale-attempt sweeps")
	fs.StringVar(&sweepCutoffStr, "sweep-cutoff", sweepCutoffStr, "Age after which a pending card attempt is flagged")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum orders per sweep batch")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShippingFee, err = decimal.NewFromString(shippingStr); err != nil {
		return nil, fmt.Errorf("invalid shipping fee: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.SweepCutoff, err = time.ParseDuration(sweepCutoffStr); err != nil {
		return nil, fmt.Errorf("invalid sweep cutoff: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if keyFile, ok := lookup("MERCHANT_KEY_FILE"); ok && keyFile != "" {
		content, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read merchant key file: %w", err)
		}
		cfg.MerchantKey = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = defaultSweepBatch
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.SweepCutoff <= 0 {
		cfg.SweepCutoff = defaultSweepCutoff
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.GatewayAddress == "" {
		return nil, fmt.Errorf("gateway address must be provided")
	}

	if cfg.MerchantID == "" || cfg.MerchantKey == "" {
		return nil, fmt.Errorf("merchant credentials must be provided")
	}

	if cfg.CallbackURL == "" {
		return nil, fmt.Errorf("callback URL must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
