package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/storage"
)

// Exporter generates Markdown reports from the store
type Exporter struct {
	db *storage.DB
}

// NewExporter creates a new exporter
func NewExporter(db *storage.DB) *Exporter {
	return &Exporter{db: db}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	IncludeMermaid   bool
	IncludeRelatives bool
	Title            string
	Now              time.Time
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeMermaid:   true,
		IncludeRelatives: true,
		Title:            "潍坊市公安局人口管理",
	}
}

func (o ExportOptions) timestamp() string {
	t := o.Now
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// ExportGraph writes the family constellation report
func (e *Exporter) ExportGraph(w io.Writer, opts ExportOptions) error {
	g, err := e.db.GetGraph()
	if err != nil {
		return fmt.Errorf("failed to get graph: %w", err)
	}
	personCount, linkCount, err := e.db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Fprintf(w, "# %s · 人员家族关系图谱\n\n", opts.Title)
	fmt.Fprintf(w, "> 生成时间: %s\n", opts.timestamp())
	fmt.Fprintf(w, "> 人员节点: %d | 关系连线: %d\n\n", personCount, linkCount)

	if root, ok := g.Root(); ok {
		writeSubject(w, root)
	}

	if opts.IncludeMermaid && len(g.Nodes) > 0 {
		writeGraphDiagram(w, g)
	}

	writePersonTable(w, g)

	if opts.IncludeRelatives {
		if err := e.writeRelativesTable(w, g); err != nil {
			return err
		}
	}
	return nil
}

// writeSubject writes the query subject section
func writeSubject(w io.Writer, root graph.PersonNode) {
	d := graph.DetailOf(root)
	fmt.Fprintf(w, "## 查询对象\n\n")
	fmt.Fprintf(w, "- **姓名:** %s\n", d.Name)
	fmt.Fprintf(w, "- **身份证号:** %s\n", d.IDCard)
	fmt.Fprintf(w, "- **住址:** %s\n", d.Address)
	fmt.Fprintf(w, "- **备注:** %s\n\n", d.Details)
}

// writeGraphDiagram writes the constellation as a Mermaid flowchart
func writeGraphDiagram(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "## 关系图\n\n```mermaid\nflowchart TB\n")

	var roots, females []string
	for _, n := range g.Nodes {
		id := makeNodeID(n.ID)
		fmt.Fprintf(w, "    %s[\"%s<br/>%s\"]\n", id, escapeLabel(n.Name), escapeLabel(n.RelationTitle))
		switch {
		case n.IsRoot:
			roots = append(roots, id)
		case n.Gender == graph.GenderFemale:
			females = append(females, id)
		}
	}

	fmt.Fprintf(w, "\n")
	for _, s := range g.Segments() {
		fmt.Fprintf(w, "    %s --> %s\n", makeNodeID(s.From), makeNodeID(s.To))
	}

	fmt.Fprintf(w, "\n    classDef root stroke:%s,stroke-width:3px\n", graph.LegendRoot)
	fmt.Fprintf(w, "    classDef female stroke:%s\n", graph.LegendFemale)
	fmt.Fprintf(w, "    classDef male stroke:%s\n", graph.LegendMale)
	if len(roots) > 0 {
		fmt.Fprintf(w, "    class %s root\n", strings.Join(roots, ","))
	}
	if len(females) > 0 {
		fmt.Fprintf(w, "    class %s female\n", strings.Join(females, ","))
	}
	fmt.Fprintf(w, "```\n\n")
}

// writePersonTable lists every node with the detail panel fallbacks
func writePersonTable(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "## 人员列表\n\n")
	fmt.Fprintf(w, "| 编号 | 姓名 | 关系 | 身份证号 | 住址 | 备注 |\n")
	fmt.Fprintf(w, "|------|------|------|----------|------|------|\n")
	for _, n := range g.Nodes {
		d := graph.DetailOf(n)
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			d.ID, d.Name, d.RelationTitle, d.IDCard, escapeCell(d.Address), truncate(escapeCell(d.Details), 30))
	}
	fmt.Fprintf(w, "\n")
}

// writeRelativesTable writes a quick reference of relative counts
func (e *Exporter) writeRelativesTable(w io.Writer, g *graph.Graph) error {
	fmt.Fprintf(w, "## 亲属速查\n\n")
	fmt.Fprintf(w, "| 姓名 | 直接上层 | 直接下层 | 全部下层 |\n")
	fmt.Fprintf(w, "|------|----------|----------|----------|\n")
	for _, n := range g.Nodes {
		parents, err := e.db.GetDirectParents(n.ID)
		if err != nil {
			return fmt.Errorf("failed to get parents of %s: %w", n.ID, err)
		}
		children, err := e.db.GetDirectChildren(n.ID)
		if err != nil {
			return fmt.Errorf("failed to get children of %s: %w", n.ID, err)
		}
		all, err := e.db.GetDescendants(n.ID, 0)
		if err != nil {
			return fmt.Errorf("failed to get descendants of %s: %w", n.ID, err)
		}
		fmt.Fprintf(w, "| %s | %s | %s | %d |\n", n.Name, names(parents), names(children), len(all))
	}
	fmt.Fprintf(w, "\n")
	return nil
}

// ExportAggregation writes the data source monitor report
func (e *Exporter) ExportAggregation(w io.Writer, opts ExportOptions) error {
	sources, err := e.db.GetSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}
	sum := dataset.Summarize(sources)

	fmt.Fprintf(w, "# %s · 数据汇聚监控\n\n", opts.Title)
	fmt.Fprintf(w, "> 生成时间: %s\n", opts.timestamp())
	fmt.Fprintf(w, "> 接入数据源: %d | 运行正常: %d | 异常告警: %d\n\n", sum.Total, sum.Normal, sum.Error)

	fmt.Fprintf(w, "## 数据源列表\n\n")
	fmt.Fprintf(w, "| 编号 | 名称 | 类型 | 状态 | 最后更新 | 数据量 |\n")
	fmt.Fprintf(w, "|------|------|------|------|----------|--------|\n")
	for _, s := range sources {
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s |\n", s.ID, s.Name, s.Type, s.Status.Label(), s.LastUpdate, s.Count)
	}
	fmt.Fprintf(w, "\n")

	var failing []dataset.Source
	for _, s := range sources {
		if s.Status == dataset.SourceError {
			failing = append(failing, s)
		}
	}
	if len(failing) == 0 {
		return nil
	}

	fmt.Fprintf(w, "## 异常数据源\n\n")
	for _, s := range failing {
		logs, err := e.db.GetSourceLogs(s.ID)
		if err != nil {
			return fmt.Errorf("failed to get logs of source %d: %w", s.ID, err)
		}
		fmt.Fprintf(w, "### ⚠️ %s\n\n", s.Name)
		fmt.Fprintf(w, "| 时间 | 级别 | 内容 |\n")
		fmt.Fprintf(w, "|------|------|------|\n")
		for _, l := range logs {
			fmt.Fprintf(w, "| %s | %s | %s |\n", l.Time, strings.ToUpper(string(l.Level)), escapeCell(l.Message))
		}
		fmt.Fprintf(w, "\n")
	}
	return nil
}

// Helper functions

func names(persons []*graph.PersonNode) string {
	if len(persons) == 0 {
		return "-"
	}
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.Name
	}
	return strings.Join(out, "、")
}

// makeNodeID turns a person id into a Mermaid-safe identifier
func makeNodeID(id string) string {
	var sb strings.Builder
	sb.WriteString("p")
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
