package client

import "time"

// Config 远端抽卡记录接口配置
type Config struct {
	// APIBase 接口域名，请求 <APIBase>/common/gacha_record/api/getGachaLog
	APIBase string `mapstructure:"api_base" validate:"required,url"`
	// LinkBase 游戏内抽卡记录页面，用于生成访问链接
	LinkBase string `mapstructure:"link_base" validate:"required,url"`

	Region  string `mapstructure:"region" validate:"required"`
	GameBiz string `mapstructure:"game_biz" validate:"required"`
	Lang    string `mapstructure:"lang"`

	// PageSize 每页条数，远端上限为 20
	PageSize int `mapstructure:"page_size" validate:"min=1,max=20"`
	// Timeout 单次 HTTP 请求超时
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig 默认配置（国服）
func DefaultConfig() *Config {
	return &Config{
		APIBase:  "https://public-operation-nap.mihoyo.com",
		LinkBase: "https://webstatic.mihoyo.com/nap/event/e20230424gacha/index.html",
		Region:   "prod_gf_cn",
		GameBiz:  "nap_cn",
		Lang:     "zh-cn",
		PageSize: 20,
		Timeout:  15 * time.Second,
	}
}

// AuthKeyConfig authkey 来源配置
type AuthKeyConfig struct {
	// Static 固定的 uid -> authkey 映射
	Static map[string]string `mapstructure:"static"`
	// ResolverURL 外部解析服务，GET <url>?uid=<uid> 返回 {"authkey": "..."}
	ResolverURL string        `mapstructure:"resolver_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}
