package config

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Configuration
	HTTPAddr string

	// NATS Configuration (empty NatsURL = static provisioning only)
	NatsURL           string
	HeartbeatInterval time.Duration

	// Gateway Configuration
	AllowedNetworks []string
	BackupEndpoints map[string]string
	PoolEndpoints   map[string][]string
	APITokens       []string
	MaxRetries      int
	RelayTimeout    time.Duration
	RetentionUnits  int

	// Chain Monitor Configuration
	CheckInterval time.Duration
	ProbeTimeout  time.Duration

	// Database Configuration
	DBPath string
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			slog.Warn("Could not load env file", "file", envFile, "error", err)
		} else {
			slog.Info("Environment loaded", "file", envFile)
		}
	}

	cfg := &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8545"),
		NatsURL:           getEnv("NATS_URL", ""),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", "10s"),
		AllowedNetworks:   getEnvList("ALLOWED_NETWORKS", "rinkeby,polygon"),
		BackupEndpoints:   getEnvPairs("BACKUP_ENDPOINTS", "rinkeby=http://1.geth.testnet.golem.network:55555,polygon=https://bor.golem.network"),
		PoolEndpoints:     getEnvMultiPairs("POOL_ENDPOINTS", ""),
		APITokens:         getEnvList("API_TOKENS", "dev-token"),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RelayTimeout:      getEnvDuration("RELAY_TIMEOUT", "15s"),
		RetentionUnits:    getEnvInt("RETENTION_UNITS", 600),
		CheckInterval:     getEnvDuration("CHECK_INTERVAL", "10s"),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", "2s"),
		DBPath:            getEnv("DB_PATH", "data/gateway.sqlite"),
	}

	for _, network := range cfg.AllowedNetworks {
		if _, ok := cfg.BackupEndpoints[network]; !ok {
			slog.Warn("No backup endpoint configured for network", "network", network)
		}
	}

	return cfg, nil
}

func loadDotEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal string) time.Duration {
	val := getEnv(key, defaultVal)
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultVal)
	return d
}

func getEnvList(key, defaultVal string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultVal), ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvPairs parses "key=value,key=value" settings, last value wins.
func getEnvPairs(key, defaultVal string) map[string]string {
	out := make(map[string]string)
	for _, item := range getEnvList(key, defaultVal) {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			slog.Warn("Skipping malformed pair in env setting", "key", key, "value", item)
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

// getEnvMultiPairs parses "key=value,key=value" settings where a key may
// repeat, collecting all values per key.
func getEnvMultiPairs(key, defaultVal string) map[string][]string {
	out := make(map[string][]string)
	for _, item := range getEnvList(key, defaultVal) {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			slog.Warn("Skipping malformed pair in env setting", "key", key, "value", item)
			continue
		}
		k := strings.TrimSpace(parts[0])
		out[k] = append(out[k], strings.TrimSpace(parts[1]))
	}
	return out
}
