package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/display"
)

func sourcesCmd() *cobra.Command {
	var viewName string
	var format string

	cmd := &cobra.Command{
		Use:   "sources [数据源ID]",
		Short: "查看数据汇聚监控",
		Long: `不带参数时列出全部数据源及其同步状态；
指定数据源 ID 时查看该数据源的运行日志、数据结构或同步配置。

示例：
  rkhl sources                      # 数据源列表
  rkhl sources 4                    # 网约房入住信息的运行日志
  rkhl sources 6 --view structure   # 户籍人口基础数据的数据结构`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				sources, err := e.store.Sources(ctx)
				if err != nil {
					return err
				}
				if format == "json" {
					return outputJSON(out, struct {
						Summary dataset.Summary  `json:"summary"`
						Sources []dataset.Source `json:"sources"`
					}{dataset.Summarize(sources), sources})
				}
				writeSources(out, sources)
				return nil
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("无效的数据源 ID: %s", args[0])
			}
			src, err := e.store.Source(ctx, id)
			if err != nil {
				return err
			}

			var data any
			switch viewName {
			case "logs":
				data, err = e.store.Logs(ctx, id)
			case "structure":
				data, err = e.store.Structure(ctx, id)
			case "config":
				data, err = e.store.SyncConfig(ctx, id)
			default:
				return fmt.Errorf("未知的查看内容 %q (可选: logs/structure/config)", viewName)
			}
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(out, data)
			}

			fmt.Fprintf(out, "%s  %s\n\n", display.Brand.Sprint(src.Name), display.SourceBadge(src.Status))
			switch v := data.(type) {
			case []dataset.LogEntry:
				rows := make([][]string, len(v))
				for i, l := range v {
					rows[i] = []string{l.Time, display.LevelBadge(l.Level), l.Message}
				}
				display.Table(out, []string{"时间", "级别", "内容"}, rows)
			case []dataset.DataField:
				fmt.Fprintf(out, "表名: %s\n\n", dataset.StructureTable)
				rows := make([][]string, len(v))
				for i, f := range v {
					rows[i] = []string{f.Name, f.Type, f.Description}
				}
				display.Table(out, []string{"字段", "类型", "说明"}, rows)
			case dataset.SyncConfig:
				fmt.Fprintf(out, "任务名称: %s\n", v.TaskName)
				fmt.Fprintf(out, "同步策略: %s\n", v.Strategy)
				fmt.Fprintf(out, "连接地址: %s\n", v.URL)
				fmt.Fprintf(out, "用户名:   %s\n", v.User)
				fmt.Fprintf(out, "自动清洗: %t\n", v.AutoClean)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&viewName, "view", "logs", "查看内容 (logs/structure/config)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func writeSources(out io.Writer, sources []dataset.Source) {
	s := dataset.Summarize(sources)
	fmt.Fprintf(out, "接入数据源 %s  运行正常 %s  异常告警 %s\n\n",
		display.Brand.Sprint(s.Total), display.Good.Sprint(s.Normal), display.Bad.Sprint(s.Error))

	rows := make([][]string, len(sources))
	for i, src := range sources {
		rows[i] = []string{
			strconv.FormatInt(src.ID, 10),
			src.Name,
			src.Type,
			display.SourceBadge(src.Status),
			src.LastUpdate,
			src.Count,
		}
	}
	display.Table(out, []string{"ID", "数据源名称", "类型", "状态", "最后更新", "数据量"}, rows)
}
