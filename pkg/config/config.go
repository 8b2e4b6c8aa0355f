package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
		DBPath string `yaml:"db_path"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Security struct {
		APIKeys struct {
			Backend  []string `yaml:"backend"`
			Frontend []string `yaml:"frontend"`
		} `yaml:"api_keys"`
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`

	Presence struct {
		SweepCron string `yaml:"sweep_cron"`
		TTL       string `yaml:"ttl"`
	} `yaml:"presence"`

	Blob struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"blob"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Load reads a YAML config file. A missing path yields an empty config,
// not an error, so env/flags alone can run the server.
func Load(path string) (*Config, error) {
	var c Config
	if path == "" {
		return &c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &c, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &c, nil
}

// LoadEnvOverrides applies CHATSYNC_* environment variables on top of the
// file config and reports whether any were used.
func LoadEnvOverrides(c *Config) bool {
	used := false
	set := func(v string, apply func(string)) {
		if v != "" {
			apply(v)
			used = true
		}
	}
	set(os.Getenv("CHATSYNC_ADDRESS"), func(v string) { c.Server.Address = v })
	set(os.Getenv("CHATSYNC_PORT"), func(v string) {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	})
	set(os.Getenv("CHATSYNC_DB_PATH"), func(v string) { c.Server.DBPath = v })
	set(os.Getenv("CHATSYNC_LOG_LEVEL"), func(v string) { c.Logging.Level = v })
	set(os.Getenv("CHATSYNC_API_BACKEND_KEYS"), func(v string) {
		c.Security.APIKeys.Backend = splitList(v)
	})
	set(os.Getenv("CHATSYNC_API_FRONTEND_KEYS"), func(v string) {
		c.Security.APIKeys.Frontend = splitList(v)
	})
	set(os.Getenv("CHATSYNC_CORS_ORIGINS"), func(v string) {
		c.Security.CORS.AllowedOrigins = splitList(v)
	})
	set(os.Getenv("CHATSYNC_RATE_RPS"), func(v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Security.RateLimit.RPS = f
		}
	})
	set(os.Getenv("CHATSYNC_RATE_BURST"), func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Security.RateLimit.Burst = n
		}
	})
	set(os.Getenv("CHATSYNC_PRESENCE_SWEEP_CRON"), func(v string) { c.Presence.SweepCron = v })
	set(os.Getenv("CHATSYNC_PRESENCE_TTL"), func(v string) { c.Presence.TTL = v })
	set(os.Getenv("CHATSYNC_BLOB_ENDPOINT"), func(v string) { c.Blob.Endpoint = v })
	set(os.Getenv("CHATSYNC_BLOB_REGION"), func(v string) { c.Blob.Region = v })
	set(os.Getenv("CHATSYNC_BLOB_BUCKET"), func(v string) { c.Blob.Bucket = v })
	set(os.Getenv("CHATSYNC_BLOB_ACCESS_KEY"), func(v string) { c.Blob.AccessKey = v })
	set(os.Getenv("CHATSYNC_BLOB_SECRET_KEY"), func(v string) { c.Blob.SecretKey = v })
	return used
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseCommandFlags defines and parses command-line flags and returns
// their values plus the set of flags explicitly provided. Flags win over
// env, env wins over file.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	a := flag.String("addr", ":8080", "listen address")
	d := flag.String("db", "./data", "path to the document store directory")
	c := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *a, *d, *c, setFlags
}

// ResolveConfigPath picks the config file path from the flag when set,
// else the CHATSYNC_CONFIG env var.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if p := os.Getenv("CHATSYNC_CONFIG"); p != "" {
		return p
	}
	return flagVal
}
