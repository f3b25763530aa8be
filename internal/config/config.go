// Package config collects the service options from defaults, an optional
// JSON file, command-line flags and environment variables, in that order
// of increasing priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"
)

const (
	DefaultPort      = 3000
	DefaultIndexPath = "web/index.html"
	DefaultIDLength  = 7
	DefaultIDSource  = "bytes"
)

var (
	ErrMissingDSN = errors.New("database DSN is required (-d, DATABASE_DSN or MONGO_URL)")
	ErrInvalid    = errors.New("invalid option")
)

// Options holds the configuration values for the application.
type Options struct {
	// Host is the interface to bind, empty for all interfaces.
	Host string `json:"host" env:"HOST"`

	// Port is the first HTTP port tried. When it is taken the next one is
	// tried, up to MaxPortAttempts times (0 means no limit).
	Port            int `json:"port" env:"PORT"`
	MaxPortAttempts int `json:"max_port_attempts" env:"MAX_PORT_ATTEMPTS"`

	// DatabaseDSN selects and addresses the link store by scheme:
	// postgres, mongodb, redis, file or memory.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`
	MongoURL    string `json:"-" env:"MONGO_URL"`

	// IndexPath is the landing page template.
	IndexPath string `json:"index_path" env:"INDEX_PATH"`

	IDLength         int    `json:"id_length" env:"ID_LENGTH"`
	IDAttempts       int    `json:"id_attempts" env:"ID_ATTEMPTS"`
	IDMaxEscalations int    `json:"id_max_escalations" env:"ID_MAX_ESCALATIONS"`
	IDSource         string `json:"id_source" env:"ID_SOURCE"`

	// AsyncInsert answers shorten requests before the new link is written.
	AsyncInsert bool `json:"async_insert" env:"ASYNC_INSERT"`

	// GRPCPort enables the gRPC listener when positive.
	GRPCPort int `json:"grpc_port" env:"GRPC_PORT"`

	// PublicURL is the base for short links returned over gRPC. Defaults to
	// http://localhost:<bound port>.
	PublicURL string `json:"public_url" env:"PUBLIC_URL"`

	// TrustedSubnet restricts /internal routes when set.
	TrustedSubnet string `json:"trusted_subnet" env:"TRUSTED_SUBNET"`

	EnableHTTPS  bool     `json:"enable_https" env:"ENABLE_HTTPS"`
	TLSHosts     []string `json:"tls_hosts" env:"TLS_HOSTS" envSeparator:","`
	CertCacheDir string   `json:"cert_cache_dir" env:"CERT_CACHE_DIR"`

	EnablePprof bool   `json:"enable_pprof" env:"ENABLE_PPROF"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL"`

	ConfigPath string `json:"-" env:"CONFIG"`
}

// Default returns the options used when nothing else is configured.
func Default() *Options {
	return &Options{
		Port:             DefaultPort,
		IndexPath:        DefaultIndexPath,
		IDLength:         DefaultIDLength,
		IDAttempts:       10,
		IDMaxEscalations: 8,
		IDSource:         DefaultIDSource,
		CertCacheDir:     "cert-cache",
		LogLevel:         "info",
	}
}

// Parse builds Options from args (without the program name) and the
// process environment, then validates them.
func Parse(args []string) (*Options, error) {
	opts := Default()

	path := configPath(args)
	if p := os.Getenv("CONFIG"); p != "" {
		path = p
	}
	if path != "" {
		if err := opts.loadFile(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	opts.bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if os.Getenv("DATABASE_DSN") == "" && opts.MongoURL != "" {
		opts.DatabaseDSN = opts.MongoURL
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.Host, "host", o.Host, "interface to listen on (env: HOST)")
	fs.IntVar(&o.Port, "p", o.Port, "first HTTP port to try (env: PORT)")
	fs.IntVar(&o.MaxPortAttempts, "port-attempts", o.MaxPortAttempts, "ports to try before giving up, 0 for no limit")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "store DSN (env: DATABASE_DSN)")
	fs.StringVar(&o.IndexPath, "index", o.IndexPath, "landing page template")
	fs.IntVar(&o.IDLength, "id-length", o.IDLength, "initial identifier length")
	fs.IntVar(&o.IDAttempts, "id-attempts", o.IDAttempts, "identifier attempts per length")
	fs.IntVar(&o.IDMaxEscalations, "id-escalations", o.IDMaxEscalations, "max identifier length increases")
	fs.StringVar(&o.IDSource, "id-source", o.IDSource, "identifier source: bytes or float")
	fs.BoolVar(&o.AsyncInsert, "async-insert", o.AsyncInsert, "write new links in the background")
	fs.IntVar(&o.GRPCPort, "g", o.GRPCPort, "gRPC port, 0 disables gRPC")
	fs.StringVar(&o.PublicURL, "b", o.PublicURL, "public base URL for gRPC short links")
	fs.StringVar(&o.TrustedSubnet, "t", o.TrustedSubnet, "CIDR allowed to reach /internal")
	fs.BoolVar(&o.EnableHTTPS, "s", o.EnableHTTPS, "serve HTTPS with autocert")
	fs.Func("tls-hosts", "comma separated autocert hosts", func(v string) error {
		o.TLSHosts = splitList(v)
		return nil
	})
	fs.StringVar(&o.CertCacheDir, "cert-cache", o.CertCacheDir, "autocert cache directory")
	fs.BoolVar(&o.EnablePprof, "pprof", o.EnablePprof, "expose /internal/debug/pprof")
	fs.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	fs.StringVar(&o.ConfigPath, "c", o.ConfigPath, "JSON config file (env: CONFIG)")
}

// configPath finds -c before the flag set is parsed, since the file has
// lower priority than every flag.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if name == "c" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(name, "c="); ok {
			return v
		}
	}
	return ""
}

func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	o.ConfigPath = path
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first option that cannot be used.
func (o *Options) Validate() error {
	if o.DatabaseDSN == "" {
		return ErrMissingDSN
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, o.Port)
	}
	if o.GRPCPort < 0 || o.GRPCPort > 65535 {
		return fmt.Errorf("%w: grpc port %d", ErrInvalid, o.GRPCPort)
	}
	if o.MaxPortAttempts < 0 {
		return fmt.Errorf("%w: port attempts %d", ErrInvalid, o.MaxPortAttempts)
	}
	if o.IDLength < 1 {
		return fmt.Errorf("%w: id length %d", ErrInvalid, o.IDLength)
	}
	if o.IDAttempts < 1 {
		return fmt.Errorf("%w: id attempts %d", ErrInvalid, o.IDAttempts)
	}
	if o.IDMaxEscalations < 0 {
		return fmt.Errorf("%w: id escalations %d", ErrInvalid, o.IDMaxEscalations)
	}
	if o.IDSource != "bytes" && o.IDSource != "float" {
		return fmt.Errorf("%w: id source %q", ErrInvalid, o.IDSource)
	}
	if o.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(o.TrustedSubnet); err != nil {
			return fmt.Errorf("%w: trusted subnet: %v", ErrInvalid, err)
		}
	}
	if _, err := zap.ParseAtomicLevel(o.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalid, err)
	}
	return nil
}
