package kinship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalyzer(db)
}

func ids(nodes []*graph.PersonNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestResolve(t *testing.T) {
	a := newAnalyzer(t)

	p, err := a.Resolve("5")
	require.NoError(t, err)
	assert.Equal(t, "张军", p.Name)

	p, err = a.Resolve("王丽")
	require.NoError(t, err)
	assert.Equal(t, "3", p.ID)

	_, err = a.Resolve("赵六")
	assert.ErrorIs(t, err, lookup.ErrNotFound)

	_, err = a.Resolve("_")
	assert.ErrorIs(t, err, lookup.ErrNotFound)

	_, err = a.Resolve("张小")
	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.Contains(t, err.Error(), "张小小(6)")
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(t)

	t.Run("full walk", func(t *testing.T) {
		r, err := a.Analyze("2", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "张强", r.Target.Name)
		assert.Equal(t, []string{"1"}, ids(r.DirectAncestors))
		assert.Empty(t, r.IndirectAncestors)
		assert.Equal(t, []string{"4", "5"}, ids(r.DirectDescendants))
		assert.Equal(t, []string{"3", "6", "7"}, ids(r.IndirectDescendants))
	})

	t.Run("direct only", func(t *testing.T) {
		r, err := a.Analyze("2", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"4", "5"}, ids(r.DirectDescendants))
		assert.Empty(t, r.IndirectDescendants)
	})

	t.Run("root", func(t *testing.T) {
		r, err := a.Analyze(dataset.RootID, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, ids(r.DirectAncestors))
		assert.Equal(t, []string{"1"}, ids(r.IndirectAncestors))
		assert.Equal(t, []string{"3", "6"}, ids(r.DirectDescendants))
		assert.Empty(t, r.IndirectDescendants)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := a.Analyze("99", 0, 0)
		assert.ErrorIs(t, err, lookup.ErrNotFound)
	})
}

func TestFormat(t *testing.T) {
	a := newAnalyzer(t)
	r, err := a.Analyze("7", 0, 0)
	require.NoError(t, err)

	md := r.FormatMarkdown()
	assert.Contains(t, md, "## 亲属关系分析: 张小军")
	assert.Contains(t, md, "| 张军 | 胞兄 | 3707021982xxxx |")
	assert.Contains(t, md, "### 间接上层关系人")
	assert.Contains(t, md, "_无直接下层关系人_")

	tree := r.FormatTree()
	assert.Contains(t, tree, "⬆️ 上层关系人 (共 3 人)")
	assert.Contains(t, tree, "⬇️ 下层关系人\n└── (无)")

	assert.Equal(t,
		"Target: 张小军, Direct Ancestors: 1, Indirect Ancestors: 2, Direct Descendants: 0, Indirect Descendants: 0",
		r.Summary())
}
