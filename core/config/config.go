package config

import (
	"reflect"
	"strings"

	"nursery-sync/core/database"
	"nursery-sync/core/logger"
	"nursery-sync/core/metrics"
	"nursery-sync/core/server"
	"nursery-sync/core/storage"
	"nursery-sync/feature/events/reconcile"
	"nursery-sync/feature/sync/client"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, divided into partial
// configurations owned by the packages they configure.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the event store connection.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the raw-capture archive (S3/Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Metrics holds configuration for the Prometheus listener.
	Metrics metrics.Config `mapstructure:"metrics"`
	// Reconcile holds tunables for the reconciliation engine.
	Reconcile reconcile.Config `mapstructure:"reconcile"`
	// Source holds configuration for the source automation bridge.
	Source client.Config `mapstructure:"source"`
	// Target holds configuration for the target automation bridge.
	Target client.Config `mapstructure:"target"`
}

// LoadConfig loads configuration from environment variables and a .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine (e.g. production, env-only setups).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register defaults from struct tags so AutomaticEnv picks up the keys.
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct tags and sets default values in Viper based on
// the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set the default (even if empty) to register the key.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
