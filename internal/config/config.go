// Package config loads and validates the node's YAML configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"chordring/internal/logger"

	"gopkg.in/yaml.v3"
)

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// TimeoutConfig holds the per-RPC-class deadlines spec.md §6 calls out
// as tunable design values.
type TimeoutConfig struct {
	Liveness   time.Duration `yaml:"liveness"`   // checkLiving, ≤5s
	Structural time.Duration `yaml:"structural"` // yourPredecessor/yourSuccessor, ≤10-20s
	FindNode   time.Duration `yaml:"findNode"`   // findNode, ≤50s
	SetChunk   time.Duration `yaml:"setChunk"`   // setChunk, ≤10s
}

// FaultToleranceConfig holds the stabilizer's tunables.
type FaultToleranceConfig struct {
	SuccessorListSize     int           `yaml:"successorListSize"`
	StabilizationInterval time.Duration `yaml:"stabilizationInterval"`
	Timeouts              TimeoutConfig `yaml:"timeouts"`
}

type RegisterConfig struct {
	Enabled      bool   `yaml:"enabled"`
	HostedZoneID string `yaml:"hostedZoneId"`
	DomainSuffix string `yaml:"domainSuffix"`
	TTL          int64  `yaml:"ttl"`
}

type BootstrapConfig struct {
	Mode     string         `yaml:"mode"` // dns, static, init
	DNSName  string         `yaml:"dnsName"`
	SRV      bool           `yaml:"srv"`
	Port     int            `yaml:"port"`
	Peers    []string       `yaml:"peers"`
	Register RegisterConfig `yaml:"register"`
}

type StorageConfig struct {
	FixInterval time.Duration `yaml:"fixInterval"`
}

// RingConfig holds the identifier-space and fault-tolerance parameters
// of the Chord ring this node joins.
type RingConfig struct {
	IDBits         int                  `yaml:"idBits"`
	Mode           string               `yaml:"mode"` // public, private
	FaultTolerance FaultToleranceConfig `yaml:"faultTolerance"`
	Storage        StorageConfig        `yaml:"storage"`
	Bootstrap      BootstrapConfig      `yaml:"bootstrap"`
}

type NodeConfig struct {
	Id   string `yaml:"id"`
	Bind string `yaml:"bind"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Ring      RingConfig      `yaml:"ring"`
	Node      NodeConfig      `yaml:"node"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoadConfig reads and parses a YAML configuration file. It performs
// only syntactic parsing; call ValidateConfig afterward.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnvOverrides overlays environment variables onto a loaded
// configuration. Supported variables:
//
//	NODE_ID, NODE_BIND, NODE_HOST, NODE_PORT
//	BOOTSTRAP_MODE, BOOTSTRAP_DNSNAME, BOOTSTRAP_SRV, BOOTSTRAP_PORT, BOOTSTRAP_PEERS
//	REGISTER_ENABLED, REGISTER_ZONE_ID, REGISTER_SUFFIX, REGISTER_TTL
//	TRACE_ENABLED, TRACE_EXPORTER, TRACE_ENDPOINT
//	LOGGER_ENABLED, LOGGER_LEVEL, LOGGER_ENCODING, LOGGER_MODE, LOGGER_FILE_PATH
func (cfg *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NODE_ID"); v != "" {
		cfg.Node.Id = v
	}
	if v := os.Getenv("NODE_BIND"); v != "" {
		cfg.Node.Bind = v
	} else if cfg.Node.Bind == "" {
		cfg.Node.Bind = "0.0.0.0"
	}
	if v := os.Getenv("NODE_HOST"); v != "" {
		cfg.Node.Host = v
	}
	if v := os.Getenv("NODE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Node.Port = port
		}
	}

	if v := os.Getenv("BOOTSTRAP_MODE"); v != "" {
		cfg.Ring.Bootstrap.Mode = v
	}
	if v := os.Getenv("BOOTSTRAP_DNSNAME"); v != "" {
		cfg.Ring.Bootstrap.DNSName = v
	}
	if v := os.Getenv("BOOTSTRAP_SRV"); v != "" {
		cfg.Ring.Bootstrap.SRV = parseBool(v)
	}
	if v := os.Getenv("BOOTSTRAP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Ring.Bootstrap.Port = port
		}
	}
	if v := os.Getenv("BOOTSTRAP_PEERS"); v != "" {
		cfg.Ring.Bootstrap.Peers = strings.Split(v, ",")
	}
	if v := os.Getenv("REGISTER_ENABLED"); v != "" {
		cfg.Ring.Bootstrap.Register.Enabled = parseBool(v)
	}
	if v := os.Getenv("REGISTER_ZONE_ID"); v != "" {
		cfg.Ring.Bootstrap.Register.HostedZoneID = v
	}
	if v := os.Getenv("REGISTER_SUFFIX"); v != "" {
		cfg.Ring.Bootstrap.Register.DomainSuffix = v
	}
	if v := os.Getenv("REGISTER_TTL"); v != "" {
		if ttl, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Ring.Bootstrap.Register.TTL = ttl
		}
	}

	if v := os.Getenv("TRACE_ENABLED"); v != "" {
		cfg.Telemetry.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.Tracing.Exporter = v
	}
	if v := os.Getenv("TRACE_ENDPOINT"); v != "" {
		cfg.Telemetry.Tracing.Endpoint = v
	}

	if v := os.Getenv("LOGGER_ENABLED"); v != "" {
		cfg.Logger.Active = parseBool(v)
	}
	if v := os.Getenv("LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOGGER_ENCODING"); v != "" {
		cfg.Logger.Encoding = v
	}
	if v := os.Getenv("LOGGER_MODE"); v != "" {
		cfg.Logger.Mode = v
	}
	if v := os.Getenv("LOGGER_FILE_PATH"); v != "" {
		cfg.Logger.File.Path = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// ValidateConfig checks structural correctness (ranges, required
// fields, enum membership); it does not check protocol semantics.
// All problems are accumulated and returned as a single error.
func (cfg *Config) ValidateConfig() error {
	var errs []string

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.encoding: %s", cfg.Logger.Encoding))
	}
	switch cfg.Logger.Mode {
	case "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
		if cfg.Logger.File.MaxSize < 0 || cfg.Logger.File.MaxBackups < 0 || cfg.Logger.File.MaxAge < 0 {
			errs = append(errs, "logger.file.* values must be non-negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Ring.IDBits <= 0 {
		errs = append(errs, "ring.idBits must be > 0")
	}
	switch cfg.Ring.Mode {
	case "public", "private":
	default:
		errs = append(errs, fmt.Sprintf("invalid ring.mode: %s", cfg.Ring.Mode))
	}
	if cfg.Ring.FaultTolerance.SuccessorListSize <= 0 {
		errs = append(errs, "ring.faultTolerance.successorListSize must be > 0")
	}
	if cfg.Ring.FaultTolerance.StabilizationInterval <= 0 {
		errs = append(errs, "ring.faultTolerance.stabilizationInterval must be > 0")
	}
	t := cfg.Ring.FaultTolerance.Timeouts
	if t.Liveness <= 0 || t.Structural <= 0 || t.FindNode <= 0 || t.SetChunk <= 0 {
		errs = append(errs, "ring.faultTolerance.timeouts.* must all be > 0")
	}

	b := cfg.Ring.Bootstrap
	switch b.Mode {
	case "dns":
		if b.DNSName == "" {
			errs = append(errs, "bootstrap.dnsName is required in mode=dns")
		}
		if !b.SRV && b.Port <= 0 {
			errs = append(errs, "bootstrap.port must be > 0 when using A/AAAA (srv=false)")
		}
		if b.Register.Enabled {
			if b.Register.HostedZoneID == "" {
				errs = append(errs, "bootstrap.register.hostedZoneId is required when register.enabled=true")
			}
			if b.Register.DomainSuffix == "" {
				errs = append(errs, "bootstrap.register.domainSuffix is required when register.enabled=true")
			}
			if b.Register.TTL <= 0 {
				errs = append(errs, "bootstrap.register.ttl must be > 0 when register.enabled=true")
			}
		}
	case "static":
		for _, p := range b.Peers {
			if _, _, err := net.SplitHostPort(p); err != nil {
				errs = append(errs, fmt.Sprintf("invalid peer address %q in bootstrap.peers: %v", p, err))
			}
		}
	case "init":
	default:
		errs = append(errs, fmt.Sprintf("invalid bootstrap.mode: %s (must be dns, static or init)", b.Mode))
	}

	if cfg.Node.Port < 0 || cfg.Node.Port > 65535 {
		errs = append(errs, fmt.Sprintf("node.port must be in [0,65535], got %d", cfg.Node.Port))
	}

	if cfg.Telemetry.Tracing.Enabled {
		switch cfg.Telemetry.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("invalid telemetry.tracing.exporter: %s", cfg.Telemetry.Tracing.Exporter))
		}
		if cfg.Telemetry.Tracing.Endpoint == "" && cfg.Telemetry.Tracing.Exporter != "stdout" {
			errs = append(errs, "telemetry.tracing.endpoint is required for non-stdout exporters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig emits the loaded configuration at DEBUG level.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	lgr.Debug("loaded configuration",
		logger.F("logger.active", cfg.Logger.Active),
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("logger.encoding", cfg.Logger.Encoding),
		logger.F("logger.mode", cfg.Logger.Mode),
		logger.F("logger.file.path", cfg.Logger.File.Path),

		logger.F("ring.idBits", cfg.Ring.IDBits),
		logger.F("ring.mode", cfg.Ring.Mode),

		logger.F("ring.storage.fixInterval", cfg.Ring.Storage.FixInterval.String()),

		logger.F("ring.faultTolerance.successorListSize", cfg.Ring.FaultTolerance.SuccessorListSize),
		logger.F("ring.faultTolerance.stabilizationInterval", cfg.Ring.FaultTolerance.StabilizationInterval.String()),
		logger.F("ring.faultTolerance.timeouts.liveness", cfg.Ring.FaultTolerance.Timeouts.Liveness.String()),
		logger.F("ring.faultTolerance.timeouts.structural", cfg.Ring.FaultTolerance.Timeouts.Structural.String()),
		logger.F("ring.faultTolerance.timeouts.findNode", cfg.Ring.FaultTolerance.Timeouts.FindNode.String()),
		logger.F("ring.faultTolerance.timeouts.setChunk", cfg.Ring.FaultTolerance.Timeouts.SetChunk.String()),

		logger.F("ring.bootstrap.mode", cfg.Ring.Bootstrap.Mode),
		logger.F("ring.bootstrap.dnsName", cfg.Ring.Bootstrap.DNSName),
		logger.F("ring.bootstrap.srv", cfg.Ring.Bootstrap.SRV),
		logger.F("ring.bootstrap.port", cfg.Ring.Bootstrap.Port),
		logger.F("ring.bootstrap.peers", cfg.Ring.Bootstrap.Peers),

		logger.F("ring.bootstrap.register.enabled", cfg.Ring.Bootstrap.Register.Enabled),
		logger.F("ring.bootstrap.register.hostedZoneId", cfg.Ring.Bootstrap.Register.HostedZoneID),
		logger.F("ring.bootstrap.register.domainSuffix", cfg.Ring.Bootstrap.Register.DomainSuffix),
		logger.F("ring.bootstrap.register.ttl", cfg.Ring.Bootstrap.Register.TTL),

		logger.F("node.id", cfg.Node.Id),
		logger.F("node.bind", cfg.Node.Bind),
		logger.F("node.port", cfg.Node.Port),

		logger.F("telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled),
		logger.F("telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter),
		logger.F("telemetry.tracing.endpoint", cfg.Telemetry.Tracing.Endpoint),
	)
}
