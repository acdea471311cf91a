package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	HTTP      HTTPConfig
	Ledger    LedgerConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	Log       LogConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LedgerConfig parámetros del ledger de inventario.
type LedgerConfig struct {
	StoreDriver                  string // postgres | memory
	MaxRetries                   int    // reintentos ante conflictos de concurrencia
	LockTimeoutMS                int    // lock_timeout por transacción (postgres)
	SeedFile                     string // catálogo JSON para el driver memory
	DefaultReservationTTLMinutes int    // 0 = las reservas no vencen salvo que se indique
}

// SchedulerConfig tareas programadas (expresiones cron de 5 campos o @every).
type SchedulerConfig struct {
	Enabled              bool
	LowStockCron         string
	ReservationSweepCron string
}

// RedisConfig destino opcional de las alertas de stock bajo. Addr vacío = deshabilitado.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	AlertChannel string
}

// Enabled true si hay dirección configurada.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// LogConfig nivel del logger.
type LogConfig struct {
	Level string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, LEDGER_STORE_DRIVER, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "stock-ledger"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			MinConns:    getInt(v, "DB_MIN_CONNS", 2),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Ledger: LedgerConfig{
			StoreDriver:                  strings.ToLower(getString(v, "LEDGER_STORE_DRIVER", "postgres")),
			MaxRetries:                   getInt(v, "LEDGER_MAX_RETRIES", 3),
			LockTimeoutMS:                getInt(v, "LEDGER_LOCK_TIMEOUT_MS", 2000),
			SeedFile:                     getString(v, "LEDGER_SEED_FILE", ""),
			DefaultReservationTTLMinutes: getInt(v, "LEDGER_RESERVATION_TTL_MINUTES", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:              getBool(v, "SCHEDULER_ENABLED", true),
			LowStockCron:         getString(v, "SCHEDULER_LOW_STOCK_CRON", "*/15 * * * *"),
			ReservationSweepCron: getString(v, "SCHEDULER_RESERVATION_SWEEP_CRON", "@every 1m"),
		},
		Redis: RedisConfig{
			Addr:         getString(v, "REDIS_ADDR", ""),
			Password:     getString(v, "REDIS_PASSWORD", ""),
			DB:           getInt(v, "REDIS_DB", 0),
			AlertChannel: getString(v, "REDIS_ALERT_CHANNEL", "stock-ledger:low-stock"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}

	switch cfg.Ledger.StoreDriver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("LEDGER_STORE_DRIVER inválido: %q (postgres|memory)", cfg.Ledger.StoreDriver)
	}
	if cfg.Ledger.MaxRetries < 0 {
		cfg.Ledger.MaxRetries = 0
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
