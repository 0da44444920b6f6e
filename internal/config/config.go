package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hairbrush/toolpath/pkg/core"
)

// ConfigFileName is the JSON configuration file read from the config
// directory.
const ConfigFileName = "toolpath.cfg.json"

// MemoryConfig holds in-memory/JSON archive backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite archive backend settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects and configures the toolpath archive backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// InfluxConfig holds session telemetry settings.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// OTelConfig holds OpenTelemetry export settings.
type OTelConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from the JSON file in configDir and sets
// default values for every key.
func Load(configDir string) error {
	// Ambient settings
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./toolpathlogs")

	// Machine profile; defaults mirror the reference machine.
	viper.SetDefault("machine.safeTravelZ", 10.0)
	viper.SetDefault("machine.drawZRange.min", 1.0)
	viper.SetDefault("machine.drawZRange.max", 5.0)
	viper.SetDefault("machine.travelFeed", 3000.0)
	viper.SetDefault("machine.drawFeed", 1500.0)
	viper.SetDefault("machine.paintAngleRange.min", 10)
	viper.SetDefault("machine.paintAngleRange.max", 180)
	viper.SetDefault("machine.airStabilizeMs", 500)
	viper.SetDefault("machine.useMacros", false)
	viper.SetDefault("machine.skipHoming", false)
	viper.SetDefault("machine.brushOffsets.brush_a.x", 0.0)
	viper.SetDefault("machine.brushOffsets.brush_a.y", 0.0)
	viper.SetDefault("machine.brushOffsets.brush_b.x", 50.0)
	viper.SetDefault("machine.brushOffsets.brush_b.y", 0.0)

	// Archive storage
	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./toolpaths")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./toolpaths.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "toolpath")

	// Session telemetry
	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "hairbrush")
	viper.SetDefault("influx.bucket", "toolpath_sessions")

	// Diagnostics export
	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetMachineConfig builds the machine profile for a compile session.
func GetMachineConfig() core.MachineConfig {
	var mc core.MachineConfig
	if err := viper.UnmarshalKey("machine", &mc); err != nil {
		return core.DefaultMachineConfig()
	}
	return mc
}

// GetStorageConfig returns the archive backend configuration.
func GetStorageConfig() StorageConfig {
	var sc StorageConfig
	if err := viper.UnmarshalKey("storage", &sc); err != nil {
		return StorageConfig{Type: "memory"}
	}
	return sc
}

// GetInfluxConfig returns the telemetry writer configuration.
func GetInfluxConfig() InfluxConfig {
	var ic InfluxConfig
	if err := viper.UnmarshalKey("influx", &ic); err != nil {
		return InfluxConfig{}
	}
	return ic
}

// GetOTelConfig returns the diagnostics export configuration.
func GetOTelConfig() OTelConfig {
	var oc OTelConfig
	if err := viper.UnmarshalKey("otel", &oc); err != nil {
		return OTelConfig{}
	}
	return oc
}

// URL assembles the InfluxDB server URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
