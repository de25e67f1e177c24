// Command lastcall 运行推荐引擎的离线任务与调试入口：
//
//	lastcall worker      # 常驻：定时刷新向量索引 + /metrics
//	lastcall refresh     # 立即刷新一次索引
//	lastcall recommend --user u1 --lat 37.56 --lng 126.97 --explain
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lastcall",
		Short: "Personalized recommendations for near-expiry local pickup items",
		Long: `lastcall builds a per-user preference vector from recent likes, scores
nearby in-stock items by similarity plus store/category/distance/keyword
bonuses, and keeps the in-memory vector index fresh from an embedding API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", os.Getenv("LASTCALL_CONFIG"), "Path to YAML config file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRefreshCmd(),
		newRecommendCmd(),
		newWorkerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lastcall version %s\n", version)
		},
	}
}
