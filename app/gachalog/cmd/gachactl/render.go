package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
)

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderRefresh 输出刷新结果
func renderRefresh(w io.Writer, res *refreshResult) error {
	if jsonOutput {
		return renderJSON(w, res)
	}

	synced := 0
	for _, p := range res.Pools {
		if !p.Failed {
			synced++
		}
	}
	fmt.Fprintf(w, "抽卡记录更新成功，共%d个卡池\n", synced)
	for _, p := range res.Pools {
		switch {
		case p.Failed:
			fmt.Fprintf(w, "%s获取失败：%s\n", p.Name, p.Error)
		case p.Truncated:
			fmt.Fprintf(w, "%s新增%d条记录，一共%d条记录（记录过多，请再次刷新）\n", p.Name, p.Inserted, p.Total)
		default:
			fmt.Fprintf(w, "%s新增%d条记录，一共%d条记录\n", p.Name, p.Inserted, p.Total)
		}
	}
	fmt.Fprintf(w, "耗时 %s\n", (time.Duration(res.DurationMS) * time.Millisecond).String())
	return nil
}

// renderAnalysis 输出各频段统计
func renderAnalysis(w io.Writer, a *model.Analysis) error {
	if jsonOutput {
		return renderJSON(w, a)
	}

	fmt.Fprintf(w, "UID %s 抽卡分析\n", a.UID)
	for _, pool := range model.Pools {
		st, ok := a.Pools[pool]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n【%s】共%d抽", pool.DisplayName(), st.Total)
		if st.Total > 0 {
			fmt.Fprintf(w, "，已%d抽未出S级", st.SinceLastTop)
		}
		fmt.Fprintln(w)

		if len(st.RarityCounts) > 0 {
			rarities := make([]int, 0, len(st.RarityCounts))
			for r := range st.RarityCounts {
				rarities = append(rarities, r)
			}
			sort.Sort(sort.Reverse(sort.IntSlice(rarities)))

			parts := make([]string, 0, len(rarities))
			for _, r := range rarities {
				parts = append(parts, fmt.Sprintf("%s:%d", rarityName(r), st.RarityCounts[r]))
			}
			fmt.Fprintln(w, strings.Join(parts, "  "))
		}

		if len(st.TopPulls) > 0 {
			parts := make([]string, 0, len(st.TopPulls))
			sum := 0
			for _, p := range st.TopPulls {
				parts = append(parts, fmt.Sprintf("%s(%d)", p.Name, p.Pity))
				sum += p.Pity
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			fmt.Fprintf(w, "平均%.1f抽出S级\n", float64(sum)/float64(len(st.TopPulls)))
		}
	}
	return nil
}

func rarityName(r int) string {
	switch r {
	case model.RarityTop:
		return "S"
	case model.RarityTop - 1:
		return "A"
	case model.RarityTop - 2:
		return "B"
	default:
		return fmt.Sprintf("R%d", r)
	}
}

// renderError 对已知错误输出提示，仍返回错误以非零状态退出
func renderError(w io.Writer, err error) error {
	var ae *apiError
	if !errors.As(err, &ae) {
		return err
	}

	switch ae.Status {
	case http.StatusUnauthorized:
		fmt.Fprintln(w, "访问令牌无效或缺失，请使用 --token 指定")
		return err
	case http.StatusForbidden:
		fmt.Fprintln(w, "访问令牌权限不足")
		return err
	}

	switch ae.Kind {
	case "cooldown_active":
		fmt.Fprintf(w, "刷新过于频繁，请%d秒后再试\n", ae.Remaining)
	case "token_unavailable":
		fmt.Fprintln(w, "authKey获取失败，请检查cookie是否过期")
	case "malformed_input":
		fmt.Fprintln(w, "抽卡链接格式错误，请重新发送")
	case "no_data":
		fmt.Fprintln(w, "未查询到抽卡记录，请先发送抽卡链接")
	case "not_awaiting_link":
		fmt.Fprintln(w, "当前会话没有在等待抽卡链接")
	case "store_unavailable":
		fmt.Fprintln(w, "存储服务不可用，请稍后再试")
	}
	return err
}
