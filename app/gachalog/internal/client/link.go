package client

import (
	"net/url"
	"strings"
)

const authKeyParam = "authkey"

// ExtractAuthKey 从粘贴的抽卡链接中取出 authkey（已解码）
// 链接前后可以带有其他文字，authkey 可出现在查询串或 # 之后
func ExtractAuthKey(link string) (string, error) {
	link = strings.TrimSpace(link)
	segments := strings.FieldsFunc(link, func(r rune) bool {
		return r == '?' || r == '&' || r == '#' || r == ' ' || r == '\n'
	})
	for _, seg := range segments {
		k, v, ok := strings.Cut(seg, "=")
		if !ok || k != authKeyParam {
			continue
		}
		// 与浏览器 decodeURIComponent 一致，'+' 保持原样
		key, err := url.PathUnescape(v)
		if err != nil || key == "" {
			return "", ErrMalformedLink
		}
		return key, nil
	}
	return "", ErrMalformedLink
}

// BuildAccessLink 生成游戏内抽卡记录页面链接
func BuildAccessLink(cfg *Config, authKey string) string {
	q := url.Values{}
	q.Set("authkey_ver", "1")
	q.Set("sign_type", "2")
	q.Set("auth_appid", "webview_gacha")
	q.Set("init_log_gacha_base_type", "2")
	q.Set("region", cfg.Region)
	q.Set("game_biz", cfg.GameBiz)
	q.Set("lang", cfg.Lang)
	q.Set(authKeyParam, authKey)
	return cfg.LinkBase + "?" + q.Encode() + "#/info"
}
