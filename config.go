package rolewatch

import (
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "ROLEWATCH"

// Config holds the runtime switches of the notification layer.
type Config struct {
	// EventsEnabled is the global switch. When false no event is emitted,
	// regardless of holder level settings.
	EventsEnabled bool `envconfig:"EVENTS_ENABLED" default:"true"`

	// RedisChannel is the pub/sub channel used by RedisSink.
	RedisChannel string `envconfig:"REDIS_CHANNEL" default:"rolewatch:events" validate:"required"`

	// QueueName is the asynq queue used by QueueSink.
	QueueName string `envconfig:"QUEUE_NAME" default:"default" validate:"required"`

	// Pool configures the DBStore connection pool (ROLEWATCH_POOL_*).
	Pool PoolConfig `envconfig:"POOL"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		EventsEnabled: true,
		RedisChannel:  "rolewatch:events",
		QueueName:     "default",
		Pool:          DefaultPoolConfig(),
	}
}

// LoadConfig reads configuration from ROLEWATCH_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
