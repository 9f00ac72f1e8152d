package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	StoreTypeFile     = "file"
	StoreTypePostgres = "postgres"
)

type Config struct {
	Log struct {
		Level      string `yaml:"level"`
		Dir        string `yaml:"dir"`
		Filename   string `yaml:"filename"`
		MaxAge     int    `yaml:"max_age"`     // 小时
		RotateTime int    `yaml:"rotate_time"` // 小时
	} `yaml:"log"`

	Store struct {
		Type      string `yaml:"type"`      // file/postgres
		Directory string `yaml:"directory"` // file 类型的规则目录
		DSN       string `yaml:"dsn"`       // postgres 连接串
		Table     string `yaml:"table"`
	} `yaml:"store"`

	API struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"api"`

	Render struct {
		// RoundTrip 为 true 时保存输出使用带 --host/--url/--content 的可重新解析形式
		RoundTrip bool `yaml:"round_trip"`
	} `yaml:"render"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "WARN"
	cfg.Log.Filename = "webstr.log"
	cfg.Log.MaxAge = 24
	cfg.Log.RotateTime = 1
	cfg.Store.Type = StoreTypeFile
	cfg.Store.Directory = "rules"
	cfg.Store.Table = "webstr_rules"
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = "8080"
	return cfg
}

func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreTypeFile:
		if c.Store.Directory == "" {
			return fmt.Errorf("store directory is required")
		}
	case StoreTypePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn is required")
		}
		if c.Store.Table == "" {
			return fmt.Errorf("store table is required")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if c.API.Port == "" {
		return fmt.Errorf("api port is required")
	}
	if c.Log.Dir != "" && c.Log.Filename == "" {
		return fmt.Errorf("log filename is required when log dir is set")
	}
	return nil
}

// LoadConfig 读取配置文件，未设置的字段使用默认值
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
