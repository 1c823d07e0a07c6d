package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshLink string

// refreshCmd 刷新抽卡记录
var refreshCmd = &cobra.Command{
	Use:   "refresh <uid>",
	Short: "Refresh gacha history of a player",
	Long: `Fetch new gacha records of all pools and merge them into the stored history.
With --link the authkey is taken from a pasted gacha record link instead of the configured source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Refresh(cmd.Context(), args[0], refreshLink)
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		return renderRefresh(cmd.OutOrStdout(), res)
	},
}

// analysisCmd 抽卡分析
var analysisCmd = &cobra.Command{
	Use:   "analysis <uid>",
	Short: "Print per-pool statistics of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Analysis(cmd.Context(), args[0])
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		return renderAnalysis(cmd.OutOrStdout(), res)
	},
}

// linkCmd 获取抽卡记录链接
var linkCmd = &cobra.Command{
	Use:   "link <uid>",
	Short: "Print the in-game gacha record link of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := newClient().AccessLink(cmd.Context(), args[0])
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

// captureCmd 开始等待粘贴链接
var captureCmd = &cobra.Command{
	Use:   "capture <conversation> <uid>",
	Short: "Wait for a gacha link in a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := newClient().BeginCapture(cmd.Context(), args[0], args[1])
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "请发送抽卡链接 (%s)\n", state)
		return nil
	},
}

// sendCmd 向会话发送一条消息
var sendCmd = &cobra.Command{
	Use:   "send <conversation> <message>",
	Short: "Send a message to a conversation awaiting a gacha link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().SendMessage(cmd.Context(), args[0], args[1])
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		return renderRefresh(cmd.OutOrStdout(), res)
	},
}

// stateCmd 查看会话状态
var stateCmd = &cobra.Command{
	Use:   "state <conversation>",
	Short: "Print the link capture state of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := newClient().CaptureState(cmd.Context(), args[0])
		if err != nil {
			return renderError(cmd.OutOrStdout(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), state)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshLink, "link", "l", "", "pasted gacha record link")
}
