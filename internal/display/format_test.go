package display

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/storage"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 4, Width("abcd"))
	assert.Equal(t, 4, Width("张伟"))
	assert.Equal(t, 8, Width("张伟 (4)"))
	assert.Equal(t, 2, Width("，"))
	assert.Equal(t, 2, Width("📍"))
	assert.Equal(t, 1, Width("…"))

	assert.Equal(t, "张伟  |", Pad("张伟", 6)+"|")
	assert.Equal(t, "张伟张伟", Pad("张伟张伟", 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "阳光1…", Truncate("阳光100城市广场", 6))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID", "名称"}, [][]string{
		{"6", "户籍人口基础数据"},
		{"10", SourceBadge(dataset.SourceError)},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  ID  名称", lines[0])
	assert.Equal(t, "  6   户籍人口基础数据", lines[2])
	assert.Equal(t, "  10  ✗ 异常", lines[3])

	buf.Reset()
	Table(&buf, []string{"ID"}, nil)
	assert.Empty(t, buf.String())
}

func TestStripped(t *testing.T) {
	assert.Equal(t, "异常", stripped("\x1b[31m异常\x1b[0m"))
	assert.Equal(t, "plain", stripped("plain"))
}

func TestBadges(t *testing.T) {
	assert.Equal(t, "● 正常", SourceBadge(dataset.SourceNormal))
	assert.Equal(t, "◌ 同步中", SourceBadge(dataset.SourceSyncing))
	assert.Equal(t, "ERROR", LevelBadge(dataset.LogError))
	assert.Equal(t, "WARN", LevelBadge(dataset.LogWarning))
	assert.Equal(t, "正常", PersonBadge(""))
	assert.Equal(t, "重点关注", PersonBadge("重点关注"))
}

func TestKinTree(t *testing.T) {
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)
	defer db.Close()

	tree, err := db.GetDescendantTree("1", 0)
	require.NoError(t, err)

	out := KinTree(tree)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "└── 张强 [父亲]"))
	assert.True(t, strings.HasPrefix(lines[1], "    ├── 张伟 [本人]"))
	assert.Contains(t, out, "张小军 [侄子]")

	col := -1
	for _, l := range lines {
		i := Width(l[:strings.Index(l, "370702")])
		if col == -1 {
			col = i
		}
		assert.Equal(t, col, i, l)
	}
}

func TestDivisionTree(t *testing.T) {
	out := DivisionTree(dataset.Default().Tree, "")

	assert.Contains(t, out, "└── ▾ 潍坊市  370700")
	assert.Contains(t, out, "    ├── ▾ 奎文区  370702")
	assert.Contains(t, out, "    │   ├── 东关街道派出所  370702001")
	assert.Contains(t, out, "    └── 青州市  370781")
}
