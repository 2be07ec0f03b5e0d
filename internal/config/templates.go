package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# ZONIX Simulation Configuration
# Every key can be overridden with ZONIX_<SECTION>_<KEY>, e.g. ZONIX_SERVER_ADDR.

[simulation]
# District token price range in INR
min_price = 40.0
max_price = 550.0
# Index points per rupee of mean district price
state_scale = 10000.0
# Bharat composite reference level and scale
nationwide_baseline = 12450000.0
nationwide_scale = 1.0
# Engine step interval
tick_interval = "1s"
# Random seed, 0 picks one from the clock
seed = 0

[tape]
# Ticker tape of headline indices and mutual funds
enabled = true
interval = "2s"
# Largest single-step move in percent
max_change_percent = 0.5

[fno]
# Spot resolution analytics are memoized on
spot_quantum = 0.01
# Number of monthly futures expiries
expiries = 4
# Analytics cache backend: "memory" or "redis"
cache = "memory"

[fno.redis]
addr = "localhost:6379"
password = ""
db = 0
ttl = "10m"

[server]
addr = ":8080"
cors_origins = ["*"]
# F&O requests per second and burst
rate_limit = 20.0
rate_burst = 40

[stream]
buffer_size = 1000
subscriber_buffer_size = 100
slow_consumer_drop_threshold = 50

[history]
# Archive index values to SQLite
enabled = false
path = "~/.config/zonix/history.db"
batch_size = 20
queue_size = 512

[logging]
# trace, debug, info, warn, error
level = "info"
console = true
# Rotated log file, empty disables file logging
file = "~/.config/zonix/logs/zonix.log"

[ui]
color_enabled = true
`

const envTemplate = `# ZONIX environment overrides
# ZONIX_FNO_CACHE=redis
# ZONIX_FNO_REDIS_ADDR=localhost:6379
# ZONIX_FNO_REDIS_PASSWORD=
`

func createTemplateConfig(configDir, name string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	envPath := filepath.Join(configDir, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// May hold a redis password
		if err := os.WriteFile(envPath, []byte(envTemplate), 0600); err != nil {
			return "", fmt.Errorf("writing env template: %w", err)
		}
	}

	return path, nil
}
