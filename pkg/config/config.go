// Package config loads and validates the oxbow configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable whose content, when set,
// replaces the configuration file wholesale. Useful for containerized
// deployments without a writable config directory.
const EnvVar = "OXBOW_CONFIG"

// Config is the process configuration, resolved once at startup.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TLS       TLS    `yaml:"tls"`
	AdminAddr string `yaml:"admin_addr"`
	DataFile  string `yaml:"data_file"`
	Verbose   bool   `yaml:"verbose"`
}

// TLS configures the transport security of the web listener. With Enable
// set and no cert/key paths, an ephemeral self-signed identity is
// generated at startup.
type TLS struct {
	Enable       bool   `yaml:"enable"`
	CertFile     string `yaml:"cert_file"`
	KeyFile      string `yaml:"key_file"`
	ClientAuth   bool   `yaml:"client_auth"`
	ClientCAFile string `yaml:"client_ca_file"`
}

// Default returns the configuration written out on first start.
func Default() Config {
	return Config{
		Host:      "localhost",
		Port:      8080,
		AdminAddr: "127.0.0.1:7070",
		DataFile:  "oxbow.db",
	}
}

// Load resolves the configuration: the EnvVar content wins if present;
// otherwise the file at path is read. A missing file is not an error: the
// defaults are written to it and returned, so a first start leaves an
// editable config behind.
func Load(path string) (Config, error) {
	if content, ok := os.LookupEnv(EnvVar); ok {
		return parse([]byte(content), EnvVar)
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeDefault(path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	return parse(raw, path)
}

func parse(raw []byte, source string) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config from %s: %w", source, err)
	}
	return cfg, nil
}

func writeDefault(path string) (Config, error) {
	cfg := Default()

	raw, err := yaml.Marshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("yaml.Marshal(default config): %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return Config{}, fmt.Errorf("writing default config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate accumulates every configuration problem instead of stopping at
// the first one.
func (c *Config) Validate() []error {
	var errors []error

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Errorf("'port' must be in [1, 65535]"))
	}

	if c.AdminAddr != "" && !strings.Contains(c.AdminAddr, ":") {
		errors = append(errors, fmt.Errorf("'admin_addr' must be host:port"))
	}

	if !c.TLS.Enable {
		for name, value := range map[string]string{
			"tls.cert_file":      c.TLS.CertFile,
			"tls.key_file":       c.TLS.KeyFile,
			"tls.client_ca_file": c.TLS.ClientCAFile,
		} {
			if value != "" {
				errors = append(errors, fmt.Errorf("'%s' requires 'tls.enable'", name))
			}
		}
		if c.TLS.ClientAuth {
			errors = append(errors, fmt.Errorf("'tls.client_auth' requires 'tls.enable'"))
		}
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errors = append(errors, fmt.Errorf("'tls.cert_file' and 'tls.key_file' must be set together"))
	}

	if c.TLS.ClientAuth && c.TLS.ClientCAFile == "" {
		errors = append(errors, fmt.Errorf("'tls.client_auth' requires 'tls.client_ca_file'"))
	}

	return errors
}
