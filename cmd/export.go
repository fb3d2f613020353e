package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/export"
)

func exportCmd() *cobra.Command {
	var outputFile string
	var noMermaid bool
	var noRelatives bool
	var title string

	cmd := &cobra.Command{
		Use:   "export [graph|aggregation]",
		Short: "导出 Markdown 报告",
		Long: `导出 Markdown 格式的报告，默认导出人员家族关系图谱。

报告类型：
  graph        人员家族关系图谱（Mermaid 关系图、人员列表、亲属速查）
  aggregation  数据汇聚监控（数据源状态、异常数据源日志）`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"graph", "aggregation"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "graph"
			if len(args) > 0 {
				kind = args[0]
			}
			if kind != "graph" && kind != "aggregation" {
				return fmt.Errorf("未知的报告类型 %q (可选: graph/aggregation)", kind)
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			exporter := export.NewExporter(e.db)
			opts := export.DefaultExportOptions()
			opts.IncludeMermaid = !noMermaid
			opts.IncludeRelatives = !noRelatives
			if title != "" {
				opts.Title = title
			}

			w, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer w.Close()

			if kind == "aggregation" {
				err = exporter.ExportAggregation(w, opts)
			} else {
				err = exporter.ExportGraph(w, opts)
			}
			if err != nil {
				return err
			}
			if outputFile != "" && outputFile != "-" {
				fmt.Fprintf(os.Stderr, "✓ 报告已导出: %s\n", outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出文件路径 (默认输出到 stdout)")
	cmd.Flags().BoolVar(&noMermaid, "no-mermaid", false, "不生成 Mermaid 图表")
	cmd.Flags().BoolVar(&noRelatives, "no-relatives", false, "不生成亲属速查表")
	cmd.Flags().StringVar(&title, "title", "", "报告标题")

	return cmd
}
