package bootstrap

import (
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"shopbank/internal/pkg/money"
)

// Config is the full runtime configuration. Values come from an
// optional YAML file (CONFIG_PATH) with environment overrides on top,
// so a service runs with zero files in development.
type Config struct {
	App struct {
		// MerchantAccount receives every order settlement. Injected
		// rather than hard-coded so tests can point it elsewhere.
		MerchantAccount string `yaml:"merchantAccount"`
		// MinimumBalance is the floor a source account must keep after
		// any transfer, and the smallest opening balance. Minor units.
		MinimumBalance money.Amount  `yaml:"minimumBalance"`
		BankCallTimeout time.Duration `yaml:"bankCallTimeout"`
		SessionTTL      time.Duration `yaml:"sessionTTL"`
	} `yaml:"app"`
	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Zookeeper struct {
			Enabled bool     `yaml:"enabled"`
			Hosts   []string `yaml:"hosts"`
		} `yaml:"zookeeper"`
		Nacos struct {
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init loads the configuration once. Call it first in every main.
func Init() {
	configOnce.Do(loadConfig)
}

// GetCurrentConfig returns the loaded configuration.
func GetCurrentConfig() Config {
	Init()
	return currentConfig
}

func loadConfig() {
	cfg := Config{}
	cfg.App.MerchantAccount = "1349885778"
	cfg.App.MinimumBalance = 10000
	cfg.App.BankCallTimeout = 5 * time.Second
	cfg.App.SessionTTL = 30 * time.Minute
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/shopbank?parseTime=true"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Nacos.Addrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(raw, &cfg)
		}
	}

	applyEnvOverrides(&cfg)
	currentConfig = cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MERCHANT_ACCOUNT"); v != "" {
		cfg.App.MerchantAccount = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("ZOOKEEPER_HOSTS"); v != "" {
		cfg.Infra.Zookeeper.Enabled = true
		cfg.Infra.Zookeeper.Hosts = strings.Split(v, ",")
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.Addrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
	if v := os.Getenv("BANK_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.App.BankCallTimeout = d
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.App.SessionTTL = d
		}
	}
}
