package kinship

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

// ErrAmbiguous is returned when a name matches more than one person
var ErrAmbiguous = errors.New("ambiguous person name")

// Analyzer walks the relatives of a person over the link table
type Analyzer struct {
	db *storage.DB
}

// NewAnalyzer creates a new relatives analyzer
func NewAnalyzer(db *storage.DB) *Analyzer {
	return &Analyzer{db: db}
}

// Report lists the persons above and below a target in the constellation
type Report struct {
	Target              *graph.PersonNode   `json:"target"`
	DirectAncestors     []*graph.PersonNode `json:"direct_ancestors"`
	IndirectAncestors   []*graph.PersonNode `json:"indirect_ancestors"`
	DirectDescendants   []*graph.PersonNode `json:"direct_descendants"`
	IndirectDescendants []*graph.PersonNode `json:"indirect_descendants"`
}

// Resolve finds a person by id, falling back to a name match
func (a *Analyzer) Resolve(query string) (*graph.PersonNode, error) {
	p, err := a.db.GetPersonByID(query)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find person: %w", err)
	}

	persons, err := a.db.FindPersonsByName(query)
	if err != nil {
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	switch len(persons) {
	case 0:
		return nil, fmt.Errorf("person %s: %w", query, lookup.ErrNotFound)
	case 1:
		return persons[0], nil
	}

	var names []string
	for _, p := range persons {
		names = append(names, p.Name+"("+p.ID+")")
	}
	return nil, fmt.Errorf("%w, found %d matches: %s", ErrAmbiguous, len(persons), strings.Join(names, ", "))
}

// Analyze collects the relatives of a person. A depth of 1 stops at direct
// relatives, 0 walks as far as the links go.
func (a *Analyzer) Analyze(query string, upDepth, downDepth int) (*Report, error) {
	target, err := a.Resolve(query)
	if err != nil {
		return nil, err
	}
	report := &Report{Target: target}

	report.DirectAncestors, err = a.db.GetDirectParents(target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct ancestors: %w", err)
	}
	if upDepth != 1 {
		all, err := a.db.GetAncestors(target.ID, upDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to get ancestors: %w", err)
		}
		report.IndirectAncestors = indirect(report.DirectAncestors, all)
	}

	report.DirectDescendants, err = a.db.GetDirectChildren(target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct descendants: %w", err)
	}
	if downDepth != 1 {
		all, err := a.db.GetDescendants(target.ID, downDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to get descendants: %w", err)
		}
		report.IndirectDescendants = indirect(report.DirectDescendants, all)
	}

	return report, nil
}

// indirect filters the direct relatives out of a full walk
func indirect(direct, all []*graph.PersonNode) []*graph.PersonNode {
	seen := make(map[string]bool, len(direct))
	for _, p := range direct {
		seen[p.ID] = true
	}
	var out []*graph.PersonNode
	for _, p := range all {
		if !seen[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func writeTable(sb *strings.Builder, persons []*graph.PersonNode) {
	sb.WriteString("| 姓名 | 关系 | 身份证号 |\n")
	sb.WriteString("|------|------|----------|\n")
	for _, p := range persons {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", p.Name, p.RelationTitle, p.IDCard))
	}
	sb.WriteString("\n")
}

// FormatMarkdown formats the report as markdown
func (r *Report) FormatMarkdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## 亲属关系分析: %s\n\n", r.Target.Name))
	sb.WriteString(fmt.Sprintf("**身份证号:** %s\n\n", r.Target.IDCard))
	sb.WriteString(fmt.Sprintf("**关系:** %s\n\n", r.Target.RelationTitle))
	if r.Target.Address != "" {
		sb.WriteString(fmt.Sprintf("**住址:** %s\n\n", r.Target.Address))
	}

	sb.WriteString("### 直接上层关系人\n\n")
	if len(r.DirectAncestors) == 0 {
		sb.WriteString("_无直接上层关系人_\n\n")
	} else {
		writeTable(&sb, r.DirectAncestors)
	}
	if len(r.IndirectAncestors) > 0 {
		sb.WriteString("### 间接上层关系人\n\n")
		writeTable(&sb, r.IndirectAncestors)
	}

	sb.WriteString("### 直接下层关系人\n\n")
	if len(r.DirectDescendants) == 0 {
		sb.WriteString("_无直接下层关系人_\n\n")
	} else {
		writeTable(&sb, r.DirectDescendants)
	}
	if len(r.IndirectDescendants) > 0 {
		sb.WriteString("### 间接下层关系人\n\n")
		writeTable(&sb, r.IndirectDescendants)
	}

	return sb.String()
}

// FormatTree formats the report as an aligned tree
func (r *Report) FormatTree() string {
	var sb strings.Builder

	up := append(append([]*graph.PersonNode(nil), r.DirectAncestors...), r.IndirectAncestors...)
	down := append(append([]*graph.PersonNode(nil), r.DirectDescendants...), r.IndirectDescendants...)

	width := len(r.Target.IDCard)
	for _, p := range append(append([]*graph.PersonNode(nil), up...), down...) {
		width = max(width, len(p.IDCard))
	}

	sb.WriteString("📍 当前人员\n")
	sb.WriteString(fmt.Sprintf("%-*s  %s (%s)\n\n", width, r.Target.IDCard, r.Target.Name, r.Target.RelationTitle))

	section := func(title string, persons []*graph.PersonNode) {
		if len(persons) == 0 {
			sb.WriteString(title + "\n")
			sb.WriteString("└── (无)\n")
			return
		}
		sb.WriteString(fmt.Sprintf("%s (共 %d 人)\n", title, len(persons)))
		for i, p := range persons {
			prefix := "├──"
			if i == len(persons)-1 {
				prefix = "└──"
			}
			sb.WriteString(fmt.Sprintf("%s %-*s  %s (%s)\n", prefix, width, p.IDCard, p.Name, p.RelationTitle))
		}
	}
	section("⬆️ 上层关系人", up)
	sb.WriteString("\n")
	section("⬇️ 下层关系人", down)

	return sb.String()
}

// Summary returns a brief summary of the report
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Target: %s, Direct Ancestors: %d, Indirect Ancestors: %d, Direct Descendants: %d, Indirect Descendants: %d",
		r.Target.Name,
		len(r.DirectAncestors),
		len(r.IndirectAncestors),
		len(r.DirectDescendants),
		len(r.IndirectDescendants),
	)
}
