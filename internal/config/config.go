package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shift-match/internal/domain/matching"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Match    MatchConfig    `mapstructure:"match"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

type AppConfig struct {
	AppName     string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"env" validate:"required"`
	HTTPPort    string `mapstructure:"http_port" validate:"required,numeric"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory postgres"`
}

type DatabaseConfig struct {
	DBHost     string `mapstructure:"host"`
	DBPort     string `mapstructure:"port"`
	DBName     string `mapstructure:"name"`
	DBUser     string `mapstructure:"user"`
	DBPassword string `mapstructure:"password"`
	DBSSLMode  string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns" validate:"gte=0"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns" validate:"gte=0"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`

	MigrationsDir string `mapstructure:"migrations_dir"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

func (r RedisConfig) Addr() string {
	if strings.TrimSpace(r.Host) == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required,min=16"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type MatchConfig struct {
	MaxRadiusKm             float64       `mapstructure:"max_radius_km" validate:"gt=0"`
	ProximityWeight         float64       `mapstructure:"weight_proximity" validate:"gte=0,lte=1"`
	SkillWeight             float64       `mapstructure:"weight_skill" validate:"gte=0,lte=1"`
	ExperienceWeight        float64       `mapstructure:"weight_experience" validate:"gte=0,lte=1"`
	DefaultMaxMatches       int           `mapstructure:"default_max_matches" validate:"gte=1"`
	PreferredSkillThreshold float64       `mapstructure:"preferred_skill_threshold" validate:"gte=0,lte=1"`
	MinOverlapMinutes       int           `mapstructure:"min_overlap_minutes" validate:"gte=0"`
	CandidateMultiplier     int           `mapstructure:"candidate_multiplier" validate:"gte=0"`
	ResponseWindow          time.Duration `mapstructure:"response_window" validate:"gt=0"`
	LeadPrice               float64       `mapstructure:"lead_price" validate:"gt=0"`
}

// Ranker converts the matching section to the ranker's configuration.
func (m MatchConfig) Ranker() matching.Config {
	return matching.Config{
		MaxRadiusKm:             m.MaxRadiusKm,
		ProximityWeight:         m.ProximityWeight,
		SkillWeight:             m.SkillWeight,
		ExperienceWeight:        m.ExperienceWeight,
		DefaultMaxMatches:       m.DefaultMaxMatches,
		PreferredSkillThreshold: m.PreferredSkillThreshold,
		MinOverlapMinutes:       m.MinOverlapMinutes,
		CandidateMultiplier:     m.CandidateMultiplier,
	}
}

type SweepConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval" validate:"gt=0"`
	BatchSize int           `mapstructure:"batch_size" validate:"gte=1"`
	Workers   int           `mapstructure:"workers" validate:"gte=1"`
	RateLimit int           `mapstructure:"rate_limit" validate:"gte=0"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	Exchange string `mapstructure:"exchange"`
}

var ErrInvalidConfig = errors.New("invalid config")

// SetDefaults registers every key so that environment variables such as
// MATCH_MAX_RADIUS_KM or DB_HOST are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	ranker := matching.DefaultConfig()

	v.SetDefault("app.name", "shift-match")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetDefault("store.driver", StorePostgres)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.name", "shift_match")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.connect_timeout", 5*time.Second)
	v.SetDefault("db.pool_max_conns", 10)
	v.SetDefault("db.pool_min_conns", 0)
	v.SetDefault("db.pool_max_conn_lifetime", time.Hour)
	v.SetDefault("db.pool_max_conn_idle_time", 30*time.Minute)
	v.SetDefault("db.pool_health_check_period", time.Minute)
	v.SetDefault("db.migrations_dir", "")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "shift-match")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("match.max_radius_km", ranker.MaxRadiusKm)
	v.SetDefault("match.weight_proximity", ranker.ProximityWeight)
	v.SetDefault("match.weight_skill", ranker.SkillWeight)
	v.SetDefault("match.weight_experience", ranker.ExperienceWeight)
	v.SetDefault("match.default_max_matches", ranker.DefaultMaxMatches)
	v.SetDefault("match.preferred_skill_threshold", ranker.PreferredSkillThreshold)
	v.SetDefault("match.min_overlap_minutes", ranker.MinOverlapMinutes)
	v.SetDefault("match.candidate_multiplier", ranker.CandidateMultiplier)
	v.SetDefault("match.response_window", 24*time.Hour)
	v.SetDefault("match.lead_price", 3.0)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("sweep.batch_size", 200)
	v.SetDefault("sweep.workers", 4)
	v.SetDefault("sweep.rate_limit", 0)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "shift-match.events")
}

// Load reads defaults, the optional config file and the environment, in
// increasing order of precedence.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("app.http_port", "HTTP_PORT", "APP_HTTP_PORT"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store.Driver == StorePostgres {
		var missing []string
		for key, val := range map[string]string{"DB_HOST": c.Database.DBHost, "DB_NAME": c.Database.DBName, "DB_USER": c.Database.DBUser} {
			if strings.TrimSpace(val) == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: postgres store requires %s", ErrInvalidConfig, strings.Join(missing, ", "))
		}
	}
	if err := c.Match.Ranker().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
