package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/cmd"
)

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "rkhl",
		Short: "人口数据回流应用 - 潍坊市人口数据管理平台",
		Long: `rkhl 是人口数据回流应用的命令行与服务端，提供数据驾驶舱、数据汇聚监控、
综合查询和人员家族关系图谱四个模块。

使用 rkhl serve 启动 Web 界面，或直接在命令行中查询。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "配置文件路径 (默认 ~/.config/rkhl/config.toml)")
	flags.StringVarP(&cmd.DbPath, "db", "d", "", "数据库文件路径 (默认使用内存库)")
	flags.StringVar(&cmd.DatasetPath, "dataset", "", "覆盖数据集 TOML 文件")
	flags.StringVar(&cmd.LogLevel, "log-level", "", "日志级别 (debug/info/warn/error)")
	flags.BoolVar(&noColor, "no-color", false, "关闭彩色输出")

	cmd.RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("错误: %v", err))
		os.Exit(1)
	}
}
