package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 3000
	defaultShutdownTimeout = 10
	defaultClientTTL       = 600
)

// DefaultRPCURLs are used when a request names a chain without an rpc url.
var DefaultRPCURLs = map[string]string{
	"SN_MAIN":    "https://api.cartridge.gg/x/starknet/mainnet",
	"SN_SEPOLIA": "https://api.cartridge.gg/x/starknet/sepolia",
}

type Config struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	SecretKey         string `json:"secret-key" yaml:"secret-key"`                   // VRF secret scalar
	ProverURL         string `json:"prover-url" yaml:"prover-url"`                   // VRF server proving instead of secret-key
	AccountAddress    string `json:"account-address" yaml:"account-address"`         // VRF account, also the provider
	AccountPrivateKey string `json:"account-private-key" yaml:"account-private-key"` // signs the wrapping outside execution

	RateLimit float64 `json:"rate-limit" yaml:"rate-limit"` // requests per second per client, 0 disables
	RateBurst int     `json:"rate-burst" yaml:"rate-burst"`
	ClientTTL int     `json:"client-ttl" yaml:"client-ttl"` // seconds an idle client bucket is kept

	// Peers allowed to set X-Forwarded-For, as CIDRs or addresses. Others are limited by
	// their socket address.
	TrustedProxies []string `json:"trusted-proxies" yaml:"trusted-proxies"`

	ShutdownTimeout int `json:"shutdown-timeout" yaml:"shutdown-timeout"` // seconds

	RPCURLs map[string]string `json:"rpc-urls" yaml:"rpc-urls"` // chain id to rpc url, on top of DefaultRPCURLs
}

// LoadConfig reads a JSON or YAML config file, chosen by extension.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file %s: %v", path, err)
	}

	conf := Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &conf)
	default:
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config %s: %v", path, err)
	}
	conf.applyDefaults()
	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.ClientTTL <= 0 {
		c.ClientTTL = defaultClientTTL
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = int(c.RateLimit) + 1
	}
}

// Validate reports every missing required field at once.
func (c Config) Validate() error {
	var missing []string
	if c.SecretKey == "" && c.ProverURL == "" {
		missing = append(missing, "secret-key")
	}
	if c.AccountAddress == "" {
		missing = append(missing, "account-address")
	}
	if c.AccountPrivateKey == "" {
		missing = append(missing, "account-private-key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s config value(s)", strings.Join(missing, ","))
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) rpcURL(chainID string) (string, bool) {
	if u, ok := c.RPCURLs[chainID]; ok && u != "" {
		return u, true
	}
	u, ok := DefaultRPCURLs[chainID]
	return u, ok
}
