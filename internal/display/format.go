package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/storage"
)

var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// cond measures terminal columns. Ambiguous-width runes count as one column
// whatever the locale.
var cond = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// Width is the number of terminal columns s occupies. CJK runes take two.
func Width(s string) int {
	return cond.StringWidth(s)
}

// Pad right-pads s with spaces to w columns
func Pad(s string, w int) string {
	return cond.FillRight(s, w)
}

// Truncate shortens s to at most w columns, marking the cut with an ellipsis
func Truncate(s string, w int) string {
	return cond.Truncate(s, w, "…")
}

// Table writes an aligned table with a dimmed header
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], Width(stripped(cell)))
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += Pad(h, widths[i]) + "  "
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += cell + strings.Repeat(" ", widths[i]-Width(stripped(cell))) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// stripped drops ANSI escape sequences so colored cells align
func stripped(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// SourceBadge colors a data source status label
func SourceBadge(s dataset.SourceStatus) string {
	switch s {
	case dataset.SourceNormal:
		return Good.Sprint("● " + s.Label())
	case dataset.SourceSyncing:
		return Info.Sprint("◌ " + s.Label())
	case dataset.SourceError:
		return Bad.Sprint("✗ " + s.Label())
	}
	return string(s)
}

// LevelBadge colors a sync log level
func LevelBadge(l dataset.LogLevel) string {
	switch l {
	case dataset.LogInfo:
		return Info.Sprint("INFO")
	case dataset.LogWarning:
		return Warn.Sprint("WARN")
	case dataset.LogError:
		return Bad.Sprint("ERROR")
	}
	return strings.ToUpper(string(l))
}

// PersonBadge colors a person status tag. Anything but 正常 is flagged.
func PersonBadge(status string) string {
	if status == "" || status == graph.StatusNormal {
		return Good.Sprint(graph.StatusNormal)
	}
	return Warn.Sprint(status)
}

func kinLabel(p *graph.PersonNode) string {
	return fmt.Sprintf("%s [%s]", p.Name, p.RelationTitle)
}

// CalcTreeMaxWidth calculates the widest label and the depth of a kin tree
func CalcTreeMaxWidth(tree []*storage.KinTreeNode, maxWidth *int, currentDepth int, maxDepth *int) {
	if currentDepth > *maxDepth {
		*maxDepth = currentDepth
	}
	for _, node := range tree {
		*maxWidth = max(*maxWidth, Width(kinLabel(node.Person)))
		if len(node.Children) > 0 {
			CalcTreeMaxWidth(node.Children, maxWidth, currentDepth+1, maxDepth)
		}
	}
}

// FormatKinTree renders a kin tree with box-drawing characters, the id card
// numbers aligned in one column.
func FormatKinTree(tree []*storage.KinTreeNode, indent string, maxWidth int, maxDepth int, currentDepth int) string {
	var sb strings.Builder
	for i, node := range tree {
		isLast := i == len(tree)-1
		prefix := "├──"
		if isLast {
			prefix = "└──"
		}

		padding := maxWidth + (maxDepth-currentDepth)*4
		sb.WriteString(fmt.Sprintf("%s%s %s  %s\n", indent, prefix, Pad(kinLabel(node.Person), padding), node.Person.IDCard))

		if len(node.Children) > 0 {
			childIndent := indent + "│   "
			if isLast {
				childIndent = indent + "    "
			}
			sb.WriteString(FormatKinTree(node.Children, childIndent, maxWidth, maxDepth, currentDepth+1))
		}
	}
	return sb.String()
}

// KinTree renders a whole kin tree
func KinTree(tree []*storage.KinTreeNode) string {
	maxWidth, maxDepth := 0, 0
	CalcTreeMaxWidth(tree, &maxWidth, 0, &maxDepth)
	return FormatKinTree(tree, "", maxWidth, maxDepth, 0)
}

// DivisionTree renders the administrative division tree. Collapsed nodes
// hide their children.
func DivisionTree(nodes []dataset.TreeNode, indent string) string {
	var sb strings.Builder
	for i, n := range nodes {
		isLast := i == len(nodes)-1
		prefix := "├──"
		if isLast {
			prefix = "└──"
		}
		mark := ""
		if len(n.Children) > 0 {
			mark = "▸ "
			if n.Expanded {
				mark = "▾ "
			}
		}
		sb.WriteString(fmt.Sprintf("%s%s %s%s  %s\n", indent, prefix, mark, n.Label, Subtle.Sprint(n.ID)))

		if n.Expanded && len(n.Children) > 0 {
			childIndent := indent + "│   "
			if isLast {
				childIndent = indent + "    "
			}
			sb.WriteString(DivisionTree(n.Children, childIndent))
		}
	}
	return sb.String()
}
