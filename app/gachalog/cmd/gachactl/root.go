package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/strawxiguan/zzz-gachalog/pkg/app"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

var (
	serverAddr  string
	accessToken string
	timeout     time.Duration
	jsonOutput  bool
)

// rootCmd gachactl 根命令
var rootCmd = &cobra.Command{
	Use:   "gachactl",
	Short: "ZZZ gacha history client",
	Long: `gachactl talks to a running gachalog server: refresh a player's
gacha history, print the per-pool analysis or get the in-game record link.`,
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行命令，失败时以非零状态退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cfg := logger.DefaultConfig()
		cfg.Level = logger.ErrorLevel
		cfg.EnableStacktrace = false

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", "error", err)
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	defaultServer := os.Getenv("GACHALOG_SERVER")
	if defaultServer == "" {
		defaultServer = "http://127.0.0.1:8080"
	}

	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", defaultServer, "gachalog server address")
	rootCmd.PersistentFlags().StringVar(&accessToken, "token", os.Getenv("GACHALOG_TOKEN"), "access token when the server enables auth")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "request timeout, a full refresh may take minutes")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON data")

	rootCmd.AddCommand(refreshCmd, analysisCmd, linkCmd, captureCmd, sendCmd, stateCmd, tokenCmd)
}

func newClient() *apiClient {
	c := newAPIClient(serverAddr, timeout)
	c.token = accessToken
	return c
}
