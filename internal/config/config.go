package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

// Backend is the REST service that owns products, categories and orders.
type Backend struct {
	BaseURL string        `yaml:"BACKEND_BASE_URL" env:"BACKEND_BASE_URL" env-default:"http://localhost:3000"`
	Timeout time.Duration `yaml:"BACKEND_TIMEOUT" env:"BACKEND_TIMEOUT" env-default:"10s"`
}

type RedisConnect struct {
	Addr     string `yaml:"REDIS_ADDR" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// CartStorage selects where persisted carts live. The file backend keeps one
// JSON blob per session under Dir; the redis backend shares carts across
// instances.
type CartStorage struct {
	Backend string       `yaml:"CART_BACKEND" env:"CART_BACKEND" env-default:"file"`
	Dir     string       `yaml:"CART_DIR" env:"CART_DIR" env-default:"./data/carts"`
	Redis   RedisConnect `yaml:"redis"`
}

type SendGrid struct {
	APIKey    string `yaml:"SENDGRID_API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"SENDGRID_FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"orders@blackgym.com.gt"`
	FromName  string `yaml:"SENDGRID_FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"BLACK GYM"`
}

// Checkout tunes the simulated payment processing run.
type Checkout struct {
	SuccessRate    float64       `yaml:"SUCCESS_RATE" env:"CHECKOUT_SUCCESS_RATE" env-default:"0.95"`
	TickInterval   time.Duration `yaml:"TICK_INTERVAL" env:"CHECKOUT_TICK_INTERVAL" env-default:"100ms"`
	ProgressStep   int           `yaml:"PROGRESS_STEP" env:"CHECKOUT_PROGRESS_STEP" env-default:"2"`
	PhaseInterval  time.Duration `yaml:"PHASE_INTERVAL" env:"CHECKOUT_PHASE_INTERVAL" env-default:"1500ms"`
	ResolveDelay   time.Duration `yaml:"RESOLVE_DELAY" env:"CHECKOUT_RESOLVE_DELAY" env-default:"500ms"`
	ClearCartDelay time.Duration `yaml:"CLEAR_CART_DELAY" env:"CHECKOUT_CLEAR_CART_DELAY" env-default:"3s"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"OTLP_ENDPOINT" env:"OTLP_ENDPOINT" env-default:""`
}

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	Backend     Backend     `yaml:"backend"`
	CartStorage CartStorage `yaml:"cart_storage"`
	SendGrid    SendGrid    `yaml:"sendgrid"`
	Checkout    Checkout    `yaml:"checkout"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags
	}

	var cfg Config

	if configPath == "" {
		// env-only mode, every field carries a default or env tag
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("can not read config from environment: %s", err.Error())
		}

		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return &cfg
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://:%s@%s/%d", r.Password, r.Addr, r.DB)
}
