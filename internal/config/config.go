// Package config loads the layered runtime configuration: defaults, an
// optional YAML file, DNA_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DNA_LLM_MODEL.
const EnvPrefix = "DNA"

// Config is the decoded configuration tree.
type Config struct {
	Env          string        `mapstructure:"env"`
	Timezone     string        `mapstructure:"timezone"`
	CatalogFile  string        `mapstructure:"catalog_file"`
	DispatchFile string        `mapstructure:"dispatch_file"`
	LLM          LLM           `mapstructure:"llm"`
	Endpoints    Endpoints     `mapstructure:"endpoints"`
	Remote       Remote        `mapstructure:"remote"`
	HTTP         HTTP          `mapstructure:"http"`
	Store        Store         `mapstructure:"store"`
	Clarify      Clarify       `mapstructure:"clarify"`
	Memory       Memory        `mapstructure:"memory"`
	Log          Log           `mapstructure:"log"`
	Server       Server        `mapstructure:"server"`
}

// LLM selects the completion endpoint.
type LLM struct {
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// Endpoints are the business API URLs of the built-in dispatch table.
type Endpoints struct {
	RoleChange  string `mapstructure:"role_change"`
	TodoCreate  string `mapstructure:"todo_create"`
	MeetingChat string `mapstructure:"meeting_chat"`
	MeetingSave string `mapstructure:"meeting_save"`
	// RemoteCall enables the JSON-RPC backend when set.
	RemoteCall string `mapstructure:"remote_call"`
}

// Remote authenticates remote-call requests.
type Remote struct {
	AuthHeader string `mapstructure:"auth_header"`
	AuthToken  string `mapstructure:"auth_token"`
}

// HTTP configures the outbound HTTP backend.
type HTTP struct {
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

// Store selects where conversation state lives.
type Store struct {
	Driver        string        `mapstructure:"driver"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	// Dir holds one JSON file per conversation for the file driver.
	Dir string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key; when set, state is sealed at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type Clarify struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type Memory struct {
	MaxMessages int `mapstructure:"max_messages"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server configures the inbound surfaces.
type Server struct {
	Port         int  `mapstructure:"port"`
	MaxInputSize int  `mapstructure:"max_input_size"`
	Metrics      bool `mapstructure:"metrics"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

var ErrInvalid = errors.New("invalid configuration")

// SetDefaults registers every key so environment overrides are visible to
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "prod")
	v.SetDefault("timezone", "Asia/Seoul")
	v.SetDefault("catalog_file", "")
	v.SetDefault("dispatch_file", "")

	v.SetDefault("llm.provider", "vllm")
	v.SetDefault("llm.model", "K-intelligence/Midm-2.0-Base-Instruct")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_tokens", 512)

	v.SetDefault("endpoints.role_change", "http://localhost:8080/api/projects/members/role")
	v.SetDefault("endpoints.todo_create", "http://localhost:8080/api/todos")
	v.SetDefault("endpoints.meeting_chat", "http://localhost:8080/api/chat/messages")
	v.SetDefault("endpoints.meeting_save", "http://localhost:8080/api/meetings")
	v.SetDefault("endpoints.remote_call", "")

	v.SetDefault("remote.auth_header", "Authorization")
	v.SetDefault("remote.auth_token", "")

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.headers", map[string]string{})

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.prefix", "dna:")
	v.SetDefault("store.ttl", 24*time.Hour)
	v.SetDefault("store.dir", ".dna")
	v.SetDefault("store.encryption_key", "")

	v.SetDefault("clarify.ttl", 10*time.Minute)
	v.SetDefault("memory.max_messages", 40)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_input_size", 4096)
	v.SetDefault("server.metrics", true)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags maps flags onto configuration keys, e.g. "port" -> "server.port".
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the optional file and decodes the tree.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
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

// Validate rejects combinations that cannot be wired.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("%w: store.redis_addr is required for the redis driver", ErrInvalid)
		}
	case DriverFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("%w: store.dir is required for the file driver", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("%w: server.port must be positive", ErrInvalid)
	}
	if c.Memory.MaxMessages < 0 {
		return fmt.Errorf("%w: memory.max_messages must not be negative", ErrInvalid)
	}
	return nil
}
