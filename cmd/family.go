package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/display"
	"github.com/zheng/rkhl/internal/export"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/kinship"
	"github.com/zheng/rkhl/internal/view"
)

func searchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <姓名或身份证号>",
		Short: "检索人口数据库中的人员",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			fmt.Fprintln(os.Stderr, display.Subtle.Sprint(view.SearchingText))
			results, err := e.store.SearchPersons(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "未找到相关人员信息")
				return nil
			}
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{strconv.Itoa(i + 1), r.Name, r.IDCard, r.Address, display.PersonBadge(r.Status)}
			}
			display.Table(out, []string{"#", "姓名", "身份证号", "户籍地址", "状态"}, rows)
			fmt.Fprintf(out, "\n共找到 %d 条记录，使用 graph 查看家族关系图谱\n", len(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func graphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "查看查询对象的家族关系图谱",
		Long: `输出当前数据集中的人员家族关系图谱。

输出格式：
  text     人员列表和关系连线
  json     节点、连线以及绘制用的线段坐标
  mermaid  Markdown 报告（包含 Mermaid 关系图）`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json", "mermaid"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if format == "mermaid" {
				opts := export.DefaultExportOptions()
				opts.IncludeRelatives = false
				return export.NewExporter(e.db).ExportGraph(out, opts)
			}

			g, err := e.store.Graph(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(out, struct {
					Nodes    []graph.PersonNode `json:"nodes"`
					Links    []graph.Link       `json:"links"`
					Segments []graph.Segment    `json:"segments"`
				}{g.Nodes, g.Links, g.Segments()})
			}
			writeGraph(out, g)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json/mermaid)")

	return cmd
}

func writeGraph(out io.Writer, g *graph.Graph) {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		name := n.Name
		if n.IsRoot {
			name = display.Brand.Sprint(n.Name)
		}
		rows = append(rows, []string{n.ID, n.RelationChar, name, n.RelationTitle, n.IDCard})
	}
	display.Table(out, []string{"节点", "", "姓名", "关系", "身份证号"}, rows)

	fmt.Fprintf(out, "\n关系连线 (%d)\n", len(g.Links))
	for _, l := range g.Links {
		from, _ := g.Node(l.From)
		to, _ := g.Node(l.To)
		fmt.Fprintf(out, "  %s → %s\n", from.Name, to.Name)
	}
}

func nodeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "node <节点ID>",
		Short: "查看图谱节点的人员详情",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.store.Person(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d := graph.DetailOf(p)

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, d)
			}
			fmt.Fprintf(out, "%s  %s\n", display.Brand.Sprint(d.Name), display.Subtle.Sprint(d.RelationTitle))
			fmt.Fprintf(out, "身份证号: %s\n", d.IDCard)
			fmt.Fprintf(out, "户籍地址: %s\n", d.Address)
			fmt.Fprintf(out, "备注信息: %s\n", d.Details)
			if d.Hint != "" {
				fmt.Fprintf(out, "\n%s\n", display.Info.Sprint(d.Hint))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func relativesCmd() *cobra.Command {
	var up, down int
	var format string
	var selectN int

	cmd := &cobra.Command{
		Use:   "relatives <节点ID或姓名>",
		Short: "分析人员的上层和下层关系人",
		Long: `沿家族关系连线分析人员的上层关系人（长辈）和下层关系人（晚辈）。

示例：
  rkhl relatives 4                 # 按节点 ID 查询
  rkhl relatives 张强 --up 1       # 按姓名查询，只看直接上层
  rkhl relatives 张小 --select 2   # 姓名匹配多人时直接选择第 2 个`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "tree", "json", "markdown"); err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			a := kinship.NewAnalyzer(e.db)
			query := args[0]
			report, err := a.Analyze(query, up, down)
			if errors.Is(err, kinship.ErrAmbiguous) {
				var id string
				id, err = choosePerson(cmd, e, query, selectN)
				if err != nil {
					return err
				}
				report, err = a.Analyze(id, up, down)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return outputJSON(out, report)
			case "markdown":
				fmt.Fprint(out, report.FormatMarkdown())
			case "tree":
				fmt.Fprint(out, report.FormatTree())
			default:
				return writeKinTrees(out, e, report, up, down)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&up, "up", 0, "向上查询深度 (0=无限)")
	cmd.Flags().IntVar(&down, "down", 0, "向下查询深度 (0=无限)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/tree/json/markdown)")
	cmd.Flags().IntVar(&selectN, "select", 0, "当匹配到多个人员时，直接选择第N个（跳过交互提示）")

	return cmd
}

// choosePerson resolves an ambiguous name by --select or an interactive prompt
func choosePerson(cmd *cobra.Command, e *env, query string, selectN int) (string, error) {
	persons, err := e.db.FindPersonsByName(query)
	if err != nil {
		return "", err
	}
	if selectN >= 1 && selectN <= len(persons) {
		return persons[selectN-1].ID, nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "找到多个匹配的人员，请选择:")
	for i, p := range persons {
		fmt.Fprintf(out, "  [%d] %s (%s)\n      %s\n", i+1, p.Name, p.RelationTitle, p.IDCard)
	}
	fmt.Fprintf(out, "\n请输入序号 [1-%d]: ", len(persons))

	var choice int
	if _, err := fmt.Fscan(cmd.InOrStdin(), &choice); err != nil || choice < 1 || choice > len(persons) {
		return "", fmt.Errorf("无效的选择")
	}
	return persons[choice-1].ID, nil
}

func writeKinTrees(out io.Writer, e *env, report *kinship.Report, up, down int) error {
	ancestors, err := e.db.GetAncestorTree(report.Target.ID, up)
	if err != nil {
		return fmt.Errorf("获取上层关系树失败: %w", err)
	}
	descendants, err := e.db.GetDescendantTree(report.Target.ID, down)
	if err != nil {
		return fmt.Errorf("获取下层关系树失败: %w", err)
	}

	fmt.Fprintln(out, "📍 当前人员")
	fmt.Fprintf(out, "%s  %s\n\n", display.Brand.Sprintf("%s [%s]", report.Target.Name, report.Target.RelationTitle), report.Target.IDCard)

	fmt.Fprintln(out, "⬆️ 上层关系人")
	if len(ancestors) == 0 {
		fmt.Fprintln(out, "└── (无)")
	} else {
		fmt.Fprint(out, display.KinTree(ancestors))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "⬇️ 下层关系人")
	if len(descendants) == 0 {
		fmt.Fprintln(out, "└── (无)")
	} else {
		fmt.Fprint(out, display.KinTree(descendants))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, display.Subtle.Sprint(report.Summary()))
	return nil
}

func overlayCmd() *cobra.Command {
	var kind string
	var format string

	cmd := &cobra.Command{
		Use:   "overlay <节点ID>",
		Short: "调取人员全息档案或活动轨迹",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			k, ok := dataset.ParseOverlayKind(kind)
			if !ok {
				return fmt.Errorf("未知的档案类型 %q (可选: archive/trajectory)", kind)
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			fmt.Fprintln(os.Stderr, display.Subtle.Sprint(dataset.OverlayLoadingText))
			c, err := e.store.Overlay(ctx, k, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, c)
			}
			writeOverlay(out, c)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "archive", "档案类型 (archive/trajectory)")
	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func writeOverlay(out io.Writer, c dataset.OverlayContent) {
	fmt.Fprintln(out, display.Brand.Sprint(c.Title))
	fmt.Fprintf(out, "%s  %s\n", c.Name, c.IDCard)
	for _, b := range c.Badges {
		fmt.Fprintf(out, "[%s] ", display.Good.Sprint(b))
	}
	fmt.Fprintln(out)

	fields := func(title string, list []dataset.Field) {
		fmt.Fprintf(out, "\n%s\n", display.Info.Sprint(title))
		rows := make([][]string, len(list))
		for i, f := range list {
			rows[i] = []string{f.Label, f.Value}
		}
		display.Table(out, []string{"项目", "内容"}, rows)
	}

	if a := c.Archive; a != nil {
		fields("户籍信息", a.Household)
		fields("社会关系", a.Social)
		fmt.Fprintf(out, "\n%s\n", display.Info.Sprint("标签"))
		for _, tag := range a.Tags {
			fmt.Fprintf(out, "  # %s\n", tag)
		}
	}
	if t := c.Trajectory; t != nil {
		fmt.Fprintf(out, "\n%s (%s)\n", display.Info.Sprint(t.HeatmapTitle), display.Subtle.Sprint(t.HeatmapCaption))
		rows := make([][]string, len(t.Activities))
		for i, a := range t.Activities {
			rows[i] = []string{a.Date, a.Event, a.Source}
		}
		display.Table(out, []string{"日期", "事件", "来源"}, rows)
	}
}
