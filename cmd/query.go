package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/display"
)

func queryCmd() *cobra.Command {
	var format string
	var detail int

	cmd := &cobra.Command{
		Use:   "query [子模块]",
		Short: "综合查询",
		Long: `按子模块执行综合查询，不带参数时列出可用的子模块。

示例：
  rkhl query                       # 列出子模块
  rkhl query address               # 标准地址查询
  rkhl query address --detail 1    # 查看第 1 条记录的详情`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				rows := make([][]string, len(dataset.SubModules))
				for i, s := range dataset.SubModules {
					rows[i] = []string{string(s.ID), s.Label}
				}
				display.Table(out, []string{"子模块", "名称"}, rows)
				return nil
			}

			sub, ok := dataset.ParseSubModule(args[0])
			if !ok {
				return fmt.Errorf("未知的子模块 %q，使用 rkhl query 查看可用子模块", args[0])
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			records, err := e.store.SearchRecords(ctx, sub)
			if err != nil {
				return err
			}

			if detail > 0 {
				if detail > len(records) {
					return fmt.Errorf("序号 %d 超出范围 [1-%d]", detail, len(records))
				}
				fmt.Fprintln(os.Stderr, display.Subtle.Sprint(dataset.DetailLoadingText))
				d, err := e.store.RecordDetail(ctx, records[detail-1])
				if err != nil {
					return err
				}
				if format == "json" {
					return outputJSON(out, d)
				}
				writeRecordDetail(out, d)
				return nil
			}

			if format == "json" {
				return outputJSON(out, records)
			}

			cols := dataset.Columns(sub)
			headers := []string{"#"}
			for _, c := range cols {
				headers = append(headers, c.Label)
			}
			rows := make([][]string, len(records))
			for i, r := range records {
				row := []string{strconv.Itoa(i + 1)}
				for _, c := range cols {
					row = append(row, display.Truncate(r.Cell(c.Key), 32))
				}
				rows[i] = row
			}
			fmt.Fprintln(out, display.Brand.Sprint(sub.Label()))
			display.Table(out, headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")
	cmd.Flags().IntVar(&detail, "detail", 0, "查看第N条记录的详情")

	return cmd
}

func writeRecordDetail(out io.Writer, d dataset.RecordDetail) {
	fmt.Fprintln(out, display.Brand.Sprint(d.Title))
	fmt.Fprintf(out, "%s  %s\n", d.Heading, display.Subtle.Sprint(d.Subheading))
	for _, b := range d.Badges {
		fmt.Fprintf(out, "[%s] ", display.Good.Sprint(b))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	rows := make([][]string, len(d.Fields))
	for i, f := range d.Fields {
		rows[i] = []string{f.Label, f.Value}
	}
	display.Table(out, []string{"项目", "内容"}, rows)

	fmt.Fprintf(out, "\n%s\n%s\n", display.Info.Sprint(d.Section), d.Body)
}

func treeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "查看行政区划树",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			tree, err := e.store.Tree(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(cmd.OutOrStdout(), tree)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.DivisionTree(tree, ""))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}
