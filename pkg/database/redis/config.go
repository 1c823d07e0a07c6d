package redis

import "time"

// Config Redis 配置（Standalone/Cluster 两种模式，必须且只能配置一种）
type Config struct {
	// Standalone 单机模式配置
	Standalone *NodeConfig `mapstructure:"standalone" json:"standalone,omitempty" yaml:"standalone,omitempty"`

	// Cluster 集群模式配置
	Cluster *ClusterConfig `mapstructure:"cluster" json:"cluster,omitempty" yaml:"cluster,omitempty"`

	// Pool 连接池配置
	Pool PoolConfig `mapstructure:"pool" json:"pool" yaml:"pool"`
}

// NodeConfig 单节点配置
type NodeConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host"`
	Port     int    `mapstructure:"port" json:"port" yaml:"port"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db"` // 数据库索引（0-15）
}

// ClusterConfig 集群配置
type ClusterConfig struct {
	Addrs    []string `mapstructure:"addrs" json:"addrs" yaml:"addrs"` // 格式: "host:port"
	Password string   `mapstructure:"password" json:"password" yaml:"password"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout" json:"pool_timeout" yaml:"pool_timeout"`
}

// DefaultConfig 本地单机默认配置
func DefaultConfig() *Config {
	return &Config{
		Standalone: &NodeConfig{Host: "localhost", Port: 6379},
		Pool: PoolConfig{
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    3 * time.Second,
			PoolTimeout:     5 * time.Second,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if (c.Standalone == nil) == (c.Cluster == nil) {
		return ErrInvalidConfig
	}
	if c.Cluster != nil && len(c.Cluster.Addrs) == 0 {
		return ErrInvalidConfig
	}
	return nil
}

// IsCluster 是否为集群模式
func (c *Config) IsCluster() bool {
	return c.Cluster != nil
}
