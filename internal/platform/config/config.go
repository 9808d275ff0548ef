package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	liststr "vinculacion/pkg/platform/strings"
)

// Config is the full process configuration, loaded once in main.
type Config struct {
	Debug      bool
	Server     Server
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Biometrics BiometricsConfig
	Oracle     OracleConfig
	Agile      AgileConfig
	Callback   CallbackConfig
	Notify     NotifyConfig
	Workflow   WorkflowConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For.
	TrustedProxies  []string
}

type PostgresConfig struct {
	URL             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers         []string
	CompletionTopic string
}

// BiometricsConfig holds the DECRIM vendor contract settings.
type BiometricsConfig struct {
	RegisterURL string
	QueryURL    string
	Username    string
	Password    string
	Canal       string
	Certificado string
	Timeout     time.Duration
}

type OracleConfig struct {
	Host             string
	Port             int
	Service          string
	User             string
	Password         string
	ProcedureTimeout time.Duration
	// DryRun only takes effect when Config.Debug is also set.
	DryRun           bool
}

type AgileConfig struct {
	BaseURL           string
	TokenURL          string
	VinculacionURL    string
	TokenPath         string
	VinculacionPath   string
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	TokenCacheKey     string
	TokenSafetyMargin time.Duration
	CountryCode       string
	DepartmentCode    string
	Autoretenedor     string
	TipoCon           string
	TipoCuenta        string
	ValorFactor       string
	CatalogDefaults   map[string]string
	Branches          map[string]string
	DefaultBranchCode string
	DryRun            bool
}

type CallbackConfig struct {
	Username   string
	Password   string
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration
	AllowedIPs []string
}

type NotifyConfig struct {
	WebhookURL       string
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

type WorkflowConfig struct {
	MaxBiometricAttempts int
	CoreBankingLinkBase  string
	BatchDefaultLimit    int
	BatchWorkers         int
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Debug: getBool("DEBUG", false),
		Server: Server{
			Addr:            getString("VINCULACION_ADDR", ":8080"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			RateLimitPerSec: getFloat("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),
			TrustedProxies:  liststr.SplitList(os.Getenv("TRUSTED_PROXIES")),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Driver:          getString("DATABASE_DRIVER", "pgx"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			Migrate:         getBool("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         liststr.SplitList(os.Getenv("KAFKA_BROKERS")),
			CompletionTopic: getString("KAFKA_COMPLETION_TOPIC", "enrollment.completed"),
		},
		Biometrics: BiometricsConfig{
			RegisterURL: getString("DECRIM_REGISTRO_URL", "https://consultorid.com/api/digital/crear/registro.php"),
			QueryURL:    getString("DECRIM_CONSULTA_URL", "https://consultorid.com/api/validacion/consultar/caso.php"),
			Username:    os.Getenv("DECRIM_USERNAME"),
			Password:    os.Getenv("DECRIM_PASSWORD"),
			Canal:       getString("DECRIM_CANAL", "0"),
			Certificado: getString("DECRIM_CERTIFICADO", "0"),
			Timeout:     getDuration("DECRIM_TIMEOUT", 30*time.Second),
		},
		Oracle: OracleConfig{
			Host:             os.Getenv("ORACLE_HOST"),
			Port:             getInt("ORACLE_PORT", 1521),
			Service:          os.Getenv("ORACLE_SERVICE"),
			User:             os.Getenv("ORACLE_USER"),
			Password:         os.Getenv("ORACLE_PASSWORD"),
			ProcedureTimeout: getDuration("ORACLE_PROCEDURE_TIMEOUT", 15*time.Second),
			DryRun:           getBool("LINIX_VERIFICACION_DRY_RUN", false),
		},
		Agile: AgileConfig{
			BaseURL:           getString("LINIX_API_BASE_URL", "http://consulta.congente.coop:8041"),
			TokenURL:          os.Getenv("LINIX_TOKEN_URL"),
			VinculacionURL:    os.Getenv("LINIX_VINCULACION_URL"),
			TokenPath:         getString("LINIX_TOKEN_PATH", "/api/v1/incluirtec/token/"),
			VinculacionPath:   getString("LINIX_VINCULACION_PATH", "/api/v1/incluirtec/vinculacion/"),
			ClientID:          os.Getenv("LINIX_CLIENT_ID"),
			ClientSecret:      os.Getenv("LINIX_CLIENT_SECRET"),
			Timeout:           getDuration("LINIX_TIMEOUT", 30*time.Second),
			TokenCacheKey:     getString("LINIX_TOKEN_CACHE_KEY", "linix_access_token"),
			TokenSafetyMargin: getDuration("LINIX_TOKEN_CACHE_SAFETY", 60*time.Second),
			CountryCode:       getString("LINIX_DEFAULT_COUNTRY_CODE", "169"),
			DepartmentCode:    getString("LINIX_DEFAULT_DEPARTMENT_CODE", "11"),
			Autoretenedor:     getString("LINIX_DEFAULT_AUTORETENEDOR", "N"),
			TipoCon:           getString("LINIX_DEFAULT_TIPO_CON", "D"),
			TipoCuenta:        getString("LINIX_DEFAULT_TIPO_CUENTA", "A"),
			ValorFactor:       getString("LINIX_DEFAULT_VALOR_FACTOR", "1"),
			CatalogDefaults:   liststr.ParsePairs(os.Getenv("LINIX_CATALOG_DEFAULTS")),
			Branches:          liststr.ParsePairs(os.Getenv("LINIX_BRANCH_CODES")),
			DefaultBranchCode: getString("LINIX_DEFAULT_BRANCH_CODE", "102"),
			DryRun:            getBool("LINIX_DRY_RUN", false),
		},
		Callback: CallbackConfig{
			Username:   os.Getenv("DECRIM_WEBHOOK_USERNAME"),
			Password:   os.Getenv("DECRIM_WEBHOOK_PASSWORD"),
			SigningKey: os.Getenv("DECRIM_WEBHOOK_SECRET"),
			Issuer:     getString("DECRIM_WEBHOOK_ISSUER", "vinculacion"),
			TokenTTL:   getDuration("DECRIM_WEBHOOK_TOKEN_TTL", 300*time.Second),
			AllowedIPs: liststr.SplitList(os.Getenv("DECRIM_WEBHOOK_ALLOWED_IPS")),
		},
		Notify: NotifyConfig{
			WebhookURL:       os.Getenv("N8N_WEBHOOK_URL"),
			Timeout:          getDuration("N8N_WEBHOOK_TIMEOUT", 10*time.Second),
			FailureThreshold: getInt("N8N_WEBHOOK_FAILURE_THRESHOLD", 5),
			Cooldown:         getDuration("N8N_WEBHOOK_COOLDOWN", time.Minute),
		},
		Workflow: WorkflowConfig{
			MaxBiometricAttempts: getInt("MAX_INTENTOS_BIOMETRIA", 2),
			CoreBankingLinkBase: getString("LINIX_LINK_BASE",
				"https://consulta.congente.coop/lnxPublico.php?nit=CONGENTE&objeto=gr_tercero_AsistidoCreacion&servicio=Y&metodo=Asistido&N_ROL=CRM&c_loop=01&publico=Y"),
			BatchDefaultLimit: getInt("LINIX_BATCH_LIMIT", 50),
			BatchWorkers:      getInt("LINIX_BATCH_WORKERS", 4),
		},
	}
}

// AgileDryRun reports whether agile submissions are simulated.
func (c Config) AgileDryRun() bool { return c.Agile.DryRun && c.Debug }

// VerificationDryRun reports whether Oracle flow checks are simulated.
func (c Config) VerificationDryRun() bool { return c.Oracle.DryRun && c.Debug }

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return v
}

// getDuration accepts Go durations ("30s") or a bare number of seconds ("30").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
