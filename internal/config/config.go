// Package config loads the static router mesh topology and the daemon's
// tunables from a YAML document, the same way the teacher's internal/config
// loads its Config struct via internal/configloader.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jmp1617/pyrip/internal/configloader"
	"github.com/jmp1617/pyrip/internal/logger"
)

// FileLoggerConfig describes lumberjack file-rotation settings.
type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// LoggerConfig controls the zap-backed logger.
type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// TracingConfig controls the otel tracer.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// TelemetryConfig groups the observability knobs.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TimersConfig holds the cadence and protocol constants from spec.md §6.
type TimersConfig struct {
	SendCadenceSeconds  int `yaml:"sendCadenceSeconds"`
	PrintCadenceSeconds int `yaml:"printCadenceSeconds"`
	SubnetBits          int `yaml:"subnetBits"`
	HopLimit            int `yaml:"hopLimit"`
	NeighborTTL         int `yaml:"neighborTtl"`
}

// DebugConfig mirrors the original's D_RECV/D_SEND/D_PRNT/D_POISON four
// switches. Send, Recv and Print each decide whether that loop logs at all:
// with a switch off, bootstrap gives the loop a no-op logger. Poison is only
// reported by LogConfig; it switches no logger.
type DebugConfig struct {
	Send   bool `yaml:"send"`
	Recv   bool `yaml:"recv"`
	Print  bool `yaml:"print"`
	Poison bool `yaml:"poison"`
}

// RouterConfig is one entry in the static mesh: an identity plus its
// configured neighbor addresses.
type RouterConfig struct {
	Name      string   `yaml:"name"`
	Address   string   `yaml:"address"`
	Port      int      `yaml:"port"`
	Neighbors []string `yaml:"neighbors"`
}

// HostPort returns "address:port" for this router.
func (r RouterConfig) HostPort() string {
	return net.JoinHostPort(r.Address, strconv.Itoa(r.Port))
}

// Config is the full static topology plus ambient tunables.
type Config struct {
	Routers   []RouterConfig  `yaml:"routers"`
	Timers    TimersConfig    `yaml:"timers"`
	Debug     DebugConfig     `yaml:"debug"`
	Logger    LoggerConfig    `yaml:"logger"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoadConfig loads the topology/tunables YAML file at path.
//
// This performs only syntactic parsing; call ValidateConfig afterward to
// check structural correctness.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := configloader.LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies environment-variable overrides to fields that
// are commonly deployment-specific, mirroring the teacher's
// Config.ApplyEnvOverrides. Supported overrides:
//
//	RIPD_LOGGER_ENABLED   -> cfg.Logger.Active
//	RIPD_LOGGER_LEVEL     -> cfg.Logger.Level
//	RIPD_LOGGER_ENCODING  -> cfg.Logger.Encoding
//	RIPD_LOGGER_MODE      -> cfg.Logger.Mode
//	RIPD_LOGGER_FILE_PATH -> cfg.Logger.File.Path
//	RIPD_TRACE_ENABLED    -> cfg.Telemetry.Tracing.Enabled
//	RIPD_TRACE_EXPORTER   -> cfg.Telemetry.Tracing.Exporter
//	RIPD_TRACE_ENDPOINT   -> cfg.Telemetry.Tracing.Endpoint
//	RIPD_SEND_CADENCE     -> cfg.Timers.SendCadenceSeconds
//	RIPD_PRINT_CADENCE    -> cfg.Timers.PrintCadenceSeconds
func (cfg *Config) ApplyEnvOverrides() {
	configloader.OverrideBool(&cfg.Logger.Active, "RIPD_LOGGER_ENABLED")
	configloader.OverrideString(&cfg.Logger.Level, "RIPD_LOGGER_LEVEL")
	configloader.OverrideString(&cfg.Logger.Encoding, "RIPD_LOGGER_ENCODING")
	configloader.OverrideString(&cfg.Logger.Mode, "RIPD_LOGGER_MODE")
	configloader.OverrideString(&cfg.Logger.File.Path, "RIPD_LOGGER_FILE_PATH")
	configloader.OverrideBool(&cfg.Telemetry.Tracing.Enabled, "RIPD_TRACE_ENABLED")
	configloader.OverrideString(&cfg.Telemetry.Tracing.Exporter, "RIPD_TRACE_EXPORTER")
	configloader.OverrideString(&cfg.Telemetry.Tracing.Endpoint, "RIPD_TRACE_ENDPOINT")
	configloader.OverrideInt(&cfg.Timers.SendCadenceSeconds, "RIPD_SEND_CADENCE")
	configloader.OverrideInt(&cfg.Timers.PrintCadenceSeconds, "RIPD_PRINT_CADENCE")
}

// ValidateConfig performs structural validation: required fields, value
// ranges, and the cross-references between routers' neighbor lists and
// other routers' addresses. It does not validate protocol dynamics.
func (cfg *Config) ValidateConfig() error {
	var errs []string

	if len(cfg.Routers) == 0 {
		errs = append(errs, "routers: at least one router must be configured")
	}
	known := make(map[string]bool, len(cfg.Routers))
	for _, r := range cfg.Routers {
		if r.Name == "" {
			errs = append(errs, "routers[]: name is required")
		}
		if _, _, err := net.SplitHostPort(r.HostPort()); err != nil {
			errs = append(errs, fmt.Sprintf("router %q: invalid address:port %q: %v", r.Name, r.HostPort(), err))
		}
		known[r.HostPort()] = true
	}
	for _, r := range cfg.Routers {
		for _, n := range r.Neighbors {
			if !known[n] {
				errs = append(errs, fmt.Sprintf("router %q: neighbor %q is not a configured router address", r.Name, n))
			}
		}
	}

	if cfg.Timers.SendCadenceSeconds <= 0 {
		errs = append(errs, "timers.sendCadenceSeconds must be > 0")
	}
	if cfg.Timers.PrintCadenceSeconds <= 0 {
		errs = append(errs, "timers.printCadenceSeconds must be > 0")
	}
	if cfg.Timers.SubnetBits < 0 || cfg.Timers.SubnetBits > 32 {
		errs = append(errs, "timers.subnetBits must be in [0,32]")
	}
	if cfg.Timers.HopLimit <= 0 {
		errs = append(errs, "timers.hopLimit must be > 0")
	}
	if cfg.Timers.NeighborTTL <= 0 {
		errs = append(errs, "timers.neighborTtl must be > 0")
	}

	switch cfg.Logger.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Mode {
	case "", "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Telemetry.Tracing.Enabled {
		switch cfg.Telemetry.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("invalid telemetry.tracing.exporter: %s", cfg.Telemetry.Tracing.Exporter))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// FindRouter returns the first RouterConfig whose address:port or bare
// address matches localAddr, used by bootstrap to resolve this process's
// identity and its neighbors.
func (cfg *Config) FindRouter(localAddr string) (RouterConfig, bool) {
	for _, r := range cfg.Routers {
		if r.HostPort() == localAddr || r.Address == localAddr {
			return r, true
		}
	}
	return RouterConfig{}, false
}

// LogConfig emits the loaded configuration at Debug level.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	names := make([]string, 0, len(cfg.Routers))
	for _, r := range cfg.Routers {
		names = append(names, r.Name)
	}
	lgr.Debug("loaded configuration",
		logger.F("routers", names),
		logger.F("timers.sendCadenceSeconds", cfg.Timers.SendCadenceSeconds),
		logger.F("timers.printCadenceSeconds", cfg.Timers.PrintCadenceSeconds),
		logger.F("timers.subnetBits", cfg.Timers.SubnetBits),
		logger.F("timers.hopLimit", cfg.Timers.HopLimit),
		logger.F("timers.neighborTtl", cfg.Timers.NeighborTTL),
		logger.F("debug.send", cfg.Debug.Send),
		logger.F("debug.recv", cfg.Debug.Recv),
		logger.F("debug.print", cfg.Debug.Print),
		logger.F("debug.poison", cfg.Debug.Poison),
		logger.F("logger.active", cfg.Logger.Active),
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled),
		logger.F("telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter),
	)
}
