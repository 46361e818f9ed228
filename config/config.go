package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// Config 是 CLI 与 HTTP 服务共用的配置。
type Config struct {
	Engine    string `yaml:"engine"`
	LogLevel  string `yaml:"logLevel"`
	Dev       bool   `yaml:"dev"`
	Listen    string `yaml:"listen"`
	Console   bool   `yaml:"console"`
	ModuleDir string `yaml:"moduleDir"`
	// AccessToken 非空时 HTTP 接口要求请求头 token 与之相等。
	AccessToken string `yaml:"accessToken"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Engine:   string(jsengine.EngineGoja),
		LogLevel: "info",
		Listen:   "127.0.0.1:3212",
		Console:  true,
	}
}

// Load 读取 YAML 配置文件，缺省字段用默认值补齐。path 为空时直接返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "读取配置文件失败")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "解析配置文件失败")
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = string(jsengine.EngineGoja)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// EngineConfig 转换为引擎层配置。
func (c Config) EngineConfig() jsengine.Config {
	return jsengine.Config{
		Name:      jsengine.EngineName(c.Engine),
		ModuleDir: c.ModuleDir,
		Console:   c.Console,
	}
}
