package app

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/strawxiguan/zzz-gachalog/pkg/config"
)

// EnvPrefix 环境变量前缀，例如 GACHALOG_GACHA_INTERVAL -> gacha.interval
const EnvPrefix = "GACHALOG"

var configPath string

// LoadConfig 解析命令行与环境变量后加载配置
// 优先级：环境变量 > 配置文件 > defaults
// 配置文件路径：--config > GACHALOG_CONFIG > ./config.yaml（不存在时只用 defaults）
func LoadConfig[T any](defaults *T) (*T, error) {
	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}

	if _, err := os.Stat(path); err != nil {
		if pflag.CommandLine.Changed("config") || !os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		path = ""
	}
	configPath = path

	return config.Load(path, EnvPrefix, defaults)
}

// GetConfigPath 返回最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}
