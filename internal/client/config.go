package client

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the standard client environment variables
type EnvConfig struct {
	RootURL     string `env:"TASKCLUSTER_ROOT_URL"`
	ProxyURL    string `env:"TASKCLUSTER_PROXY_URL"`
	ClientID    string `env:"TASKCLUSTER_CLIENT_ID"`
	AccessToken string `env:"TASKCLUSTER_ACCESS_TOKEN"`
	Certificate string `env:"TASKCLUSTER_CERTIFICATE"`
}

// ConfigFromEnv loads the client configuration from environment variables
func ConfigFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// EffectiveRootURL is the proxy URL when one is set, otherwise the root URL
func (c EnvConfig) EffectiveRootURL() string {
	if c.ProxyURL != "" {
		return c.ProxyURL
	}
	return c.RootURL
}

// Credentials returns the configured credentials, or nil when requests
// should go out unsigned: no client id is set, or a proxy signs them
func (c EnvConfig) Credentials() *Credentials {
	if c.ClientID == "" || c.ProxyURL != "" {
		return nil
	}
	return &Credentials{
		ClientID:    c.ClientID,
		AccessToken: c.AccessToken,
		Certificate: c.Certificate,
	}
}
