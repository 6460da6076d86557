// Package config assembles the supervisor's runtime configuration from
// three layers, lowest precedence first: a YAML config file, environment
// variables, and command-line flags (spec.md §1, SPEC_FULL.md §2 "CLI &
// config"). The flag layer is grounded on the teacher's pflag idiom in
// src/atest.go and src/gen_packets.go; the YAML layer is grounded on
// src/deviceid.go's gopkg.in/yaml.v3 usage.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Module selects which decoder family the supervisor drives.
type Module string

const (
	ModuleHFDL Module = "hfdl"
	ModuleVDL2 Module = "vdl2"
)

// Config is the fully resolved set of settings a running supervisor needs.
// Field names intentionally mirror the original_source flag names
// (common/arguments.rs, modules/hfdl/mod.rs, modules/aoa/mod.rs,
// server/mod.rs) rather than inventing new ones.
type Config struct {
	Module Module `yaml:"module"`

	Quiet   bool `yaml:"quiet"`
	Verbose int  `yaml:"verbose"`

	APIToken         string `yaml:"api_token"`
	DisableCrossSite bool   `yaml:"disable_cross_site"`
	ListenHost       string `yaml:"listen_host"`
	ListenPort       uint16 `yaml:"listen_port"`

	ElasticURL       string `yaml:"elastic"`
	ElasticIndex     string `yaml:"elastic_index"`
	ValidateESCert   bool   `yaml:"validate_es_cert"`

	StateDBURL      string `yaml:"state_db"`
	DisableStateDB  bool   `yaml:"disable_state_db"`

	SwarmAddr string `yaml:"swarm"`

	AuditLogDir string `yaml:"audit_log_dir"`

	TCPPort           uint16        `yaml:"tcp_port"`
	InactiveTimeout   time.Duration `yaml:"inactive_timeout"`

	Bin             string        `yaml:"bin"`
	SysTable        string        `yaml:"systable"`
	GroundStations  string        `yaml:"ground_stations"`
	StaleTimeout    time.Duration `yaml:"stale_timeout"`
	Bandwidth       int           `yaml:"bandwidth"`
	UseAirframesGS  bool          `yaml:"use_airframes_gs_map"`
	SampleRateHz    int           `yaml:"sample_rate"`
}

// defaults mirrors the fallback values original_source's parse_* helpers
// apply when a flag/env var/config key is absent.
func defaults() Config {
	return Config{
		Module:          ModuleHFDL,
		ListenHost:      "127.0.0.1",
		ListenPort:      8080,
		ElasticIndex:    "xng_acars_db",
		StateDBURL:      "sqlite://xng.db",
		TCPPort:         5552,
		InactiveTimeout: 60 * time.Second,
		StaleTimeout:    10 * time.Minute,
		Bandwidth:       12000,
		SampleRateHz:    12000,
	}
}

// Load resolves a Config from a YAML file (if path is non-empty),
// environment variables (XNG_ prefix), and the process's command-line
// flags, in that ascending order of precedence.
func Load(path string, args []string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := applyFlags(&cfg, args); err != nil {
		return Config{}, err
	}

	if cfg.Module != ModuleHFDL && cfg.Module != ModuleVDL2 {
		return Config{}, fmt.Errorf("config: unknown module %q, want %q or %q", cfg.Module, ModuleHFDL, ModuleVDL2)
	}

	if cfg.SwarmAddr != "" && cfg.ElasticURL != "" {
		return Config{}, fmt.Errorf("config: --swarm and --elastic are mutually exclusive")
	}

	return cfg, nil
}

// SwarmMode reports whether frames should be streamed to a swarm
// aggregator instead of ElasticSearch/the local state DB fan-out path.
func (c Config) SwarmMode() bool { return c.SwarmAddr != "" }

// envBindings lists the env var name for every field that accepts one,
// in the same order as the flag set below.
var envBindings = []struct {
	name string
	set  func(*Config, string)
}{
	{"XNG_API_TOKEN", func(c *Config, v string) { c.APIToken = v }},
	{"XNG_LISTEN_HOST", func(c *Config, v string) { c.ListenHost = v }},
	{"XNG_LISTEN_PORT", func(c *Config, v string) { setUint16(&c.ListenPort, v) }},
	{"XNG_ELASTIC", func(c *Config, v string) { c.ElasticURL = v }},
	{"XNG_ELASTIC_INDEX", func(c *Config, v string) { c.ElasticIndex = v }},
	{"XNG_STATE_DB", func(c *Config, v string) { c.StateDBURL = v }},
	{"XNG_BIN", func(c *Config, v string) { c.Bin = v }},
	{"XNG_SYSTABLE", func(c *Config, v string) { c.SysTable = v }},
	{"XNG_GROUND_STATIONS", func(c *Config, v string) { c.GroundStations = v }},
	{"XNG_SAMPLE_RATE", func(c *Config, v string) { setInt(&c.SampleRateHz, v) }},
}

func applyEnv(cfg *Config) {
	for _, b := range envBindings {
		if v, ok := os.LookupEnv(b.name); ok && v != "" {
			b.set(cfg, v)
		}
	}
}

func setUint16(dst *uint16, raw string) {
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return
	}
	*dst = uint16(n)
}

func setInt(dst *int, raw string) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	*dst = n
}

// applyFlags registers the common, server, and module-specific flags
// (common/arguments.rs, server/mod.rs, modules/hfdl|aoa/mod.rs) on a
// private FlagSet so repeated calls to Load in tests don't collide with
// the package-level pflag.CommandLine.
func applyFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("xng", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage of xng:")
		fs.PrintDefaults()
	}

	module := fs.StringP("module", "m", string(cfg.Module), `Decoder module to run ("hfdl" or "vdl2").`)

	quiet := fs.BoolP("quiet", "q", cfg.Quiet, "Silence all output")
	verbose := fs.CountP("verbose", "v", "Verbose level")

	apiToken := fs.String("api-token", cfg.APIToken, "Sets up an authentication token for API server access")
	disableCrossSite := fs.Bool("disable-cross-site", cfg.DisableCrossSite, "Disable cross site requests")
	listenHost := fs.String("listen-host", cfg.ListenHost, "Host for API server to listen on")
	listenPort := fs.Uint16("listen-port", cfg.ListenPort, "Port for API server to listen on")

	elastic := fs.String("elastic", cfg.ElasticURL, "Export processed common JSON frames to ElasticSearch")
	elasticIndex := fs.String("elastic-index", cfg.ElasticIndex, "ElasticSearch Index name to use for storing common JSON frames")
	validateESCert := fs.Bool("validate-es-cert", cfg.ValidateESCert, "Validate ElasticSearch server certificate")

	stateDB := fs.String("state-db", cfg.StateDBURL, "SQLite3 database to store state metrics. URL should begin with sqlite://")
	disableStateDB := fs.Bool("disable-state-db", cfg.DisableStateDB, "Disables SQLite3 database to store state metrics.")

	swarmAddr := fs.String("swarm", cfg.SwarmAddr, "host:port of a swarm aggregator to stream common JSON frames to (mutually exclusive with --elastic)")
	auditLogDir := fs.String("audit-log-dir", cfg.AuditLogDir, "Directory for daily-rotated raw decoder line audit logs; empty disables")

	tcpPort := fs.Uint16("tcp", cfg.TCPPort, "TCP port to listen for frames on")
	inactiveTimeout := fs.Int("inactive-timeout", int(cfg.InactiveTimeout/time.Second), "Disconnect client if inactive for specified seconds")

	bin := fs.String("bin", cfg.Bin, "Path to the decoder binary (dumphfdl or dumpvdl2)")
	systable := fs.String("systable", cfg.SysTable, "Path to dumphfdl system table configuration")
	groundStations := fs.String("ground-stations", cfg.GroundStations, "Path to VDL2 Ground Stations CSV file")
	staleTimeout := fs.Int("stale-timeout", int(cfg.StaleTimeout/time.Second), "Elapsed time since last update before aircraft/ground station data is considered stale")
	bandwidth := fs.Int("bandwidth", cfg.Bandwidth, "Initial bandwidth to use for splitting spectrum into bands of coverage")
	useAirframesGS := fs.Bool("use-airframes-gs-map", cfg.UseAirframesGS, "Use airframes.io's live ground station frequency map")
	sampleRate := fs.Int("sample-rate", cfg.SampleRateHz, "SDR sample rate in Hz")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parse flags: %w", err)
	}

	cfg.Module = Module(strings.ToLower(*module))
	cfg.Quiet = *quiet
	cfg.Verbose = *verbose
	cfg.APIToken = *apiToken
	cfg.DisableCrossSite = *disableCrossSite
	cfg.ListenHost = *listenHost
	cfg.ListenPort = *listenPort
	cfg.ElasticURL = *elastic
	cfg.ElasticIndex = *elasticIndex
	cfg.ValidateESCert = *validateESCert
	cfg.StateDBURL = *stateDB
	cfg.DisableStateDB = *disableStateDB
	cfg.SwarmAddr = *swarmAddr
	cfg.AuditLogDir = *auditLogDir
	cfg.TCPPort = *tcpPort
	cfg.InactiveTimeout = time.Duration(*inactiveTimeout) * time.Second
	cfg.Bin = *bin
	cfg.SysTable = *systable
	cfg.GroundStations = *groundStations
	cfg.StaleTimeout = time.Duration(*staleTimeout) * time.Second
	cfg.Bandwidth = *bandwidth
	cfg.UseAirframesGS = *useAirframesGS
	cfg.SampleRateHz = *sampleRate

	return nil
}
