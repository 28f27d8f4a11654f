// Package config reads storefront settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CartStoreFile  = "file"
	CartStoreRedis = "redis"
	CartStoreMongo = "mongo"
)

type Config struct {
	// Backend
	BackendURL     string
	ConsulAddr     string
	BackendService string
	BackendPath    string
	AccessToken    string
	RequestTimeout time.Duration

	// Identity and scope
	CustomerID   string
	FranchiseeID string
	TruckID      string
	WarehouseID  string

	// Cart
	CartStore string
	CartDir   string
	CartKey   string
	RedisAddr string
	MongoURI  string
	MongoDB   string

	// Checkout
	CompensatePartialOrders bool
	PaymentUIMode           string
	CheckoutAddr            string
	StripePublishableKey    string
	ConfirmTimeout          time.Duration
	CheckoutRetention       time.Duration

	// Serve
	HTTPPort           string
	GRPCPort           string
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	// Events
	KafkaBrokers     []string
	OrderEventsTopic string

	LogLevel string
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	confirmTimeout, err := getEnvDuration("CONFIRM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	retention, err := getEnvDuration("CHECKOUT_RETENTION", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	compensate, err := getEnvBool("COMPENSATE_PARTIAL_ORDERS", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:3000/api"), "/"),
		ConsulAddr:     getEnv("CONSUL_ADDR", ""),
		BackendService: getEnv("BACKEND_SERVICE", ""),
		BackendPath:    getEnv("BACKEND_PATH", "/api"),
		AccessToken:    getEnv("ACCESS_TOKEN", ""),
		RequestTimeout: requestTimeout,

		CustomerID:   getEnv("CUSTOMER_ID", ""),
		FranchiseeID: getEnv("FRANCHISEE_ID", ""),
		TruckID:      getEnv("TRUCK_ID", ""),
		WarehouseID:  getEnv("WAREHOUSE_ID", ""),

		CartStore: strings.ToLower(getEnv("CART_STORE", CartStoreFile)),
		CartDir:   getEnv("CART_DIR", defaultCartDir()),
		CartKey:   getEnv("CART_KEY", "cart"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "storefront"),

		CompensatePartialOrders: compensate,
		PaymentUIMode:           strings.ToLower(getEnv("PAYMENT_UI_MODE", "embedded")),
		CheckoutAddr:            getEnv("CHECKOUT_ADDR", "127.0.0.1:4242"),
		StripePublishableKey:    getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		ConfirmTimeout:          confirmTimeout,
		CheckoutRetention:       retention,

		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCPort:           getEnv("GRPC_PORT", "9090"),
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20,

		KafkaBrokers:     getEnvList("KAFKA_BROKERS"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "customer-order-events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CartStore {
	case CartStoreFile, CartStoreRedis, CartStoreMongo:
	default:
		return fmt.Errorf("CART_STORE must be file, redis or mongo, got %q", c.CartStore)
	}
	switch c.PaymentUIMode {
	case "embedded", "hosted":
	default:
		return fmt.Errorf("PAYMENT_UI_MODE must be embedded or hosted, got %q", c.PaymentUIMode)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// UseConsul reports whether the backend address comes from service discovery.
func (c *Config) UseConsul() bool {
	return c.ConsulAddr != "" && c.BackendService != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultCartDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "storefront"
	}
	return ".storefront"
}
