package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFamilyGraph(t *testing.T) {
	g := Default().Graph()

	t.Run("every link resolves to a node", func(t *testing.T) {
		for _, l := range g.Links {
			_, ok := g.Node(l.From)
			assert.True(t, ok, "from %s", l.From)
			_, ok = g.Node(l.To)
			assert.True(t, ok, "to %s", l.To)
		}

		dangling, err := g.Validate()
		require.NoError(t, err)
		assert.Empty(t, dangling)
		assert.Len(t, g.Segments(), len(g.Links))
	})

	t.Run("exactly one root with the fixed id", func(t *testing.T) {
		roots := 0
		for _, n := range g.Nodes {
			if n.IsRoot {
				roots++
				assert.Equal(t, RootID, n.ID)
			}
		}
		assert.Equal(t, 1, roots)
	})

	t.Run("search candidates are the three fixed rows", func(t *testing.T) {
		d := Default()
		require.Len(t, d.Candidates, 3)
		assert.Equal(t, "重点关注", d.Candidates[1].Status)
	})
}

func TestDefaultIsACopy(t *testing.T) {
	a := Default()
	a.Persons[0].Name = "changed"
	a.Tree[0].Children[0].Label = "changed"

	b := Default()
	assert.Equal(t, "张建国", b.Persons[0].Name)
	assert.Equal(t, "奎文区", b.Tree[0].Children[0].Label)
}

func TestAggregationRules(t *testing.T) {
	t.Run("household source exposes the base table layout", func(t *testing.T) {
		fields := StructureFor(6)
		require.Len(t, fields, 7)
		assert.Equal(t, "GMSFHM", fields[0].Name)
	})

	t.Run("other sources expose the business layout", func(t *testing.T) {
		fields := StructureFor(1)
		require.Len(t, fields, 5)
		assert.Equal(t, "YWID", fields[0].Name)
	})

	t.Run("flaky source logs an error", func(t *testing.T) {
		logs := LogsFor(4)
		require.Len(t, logs, 4)
		assert.Equal(t, LogError, logs[3].Level)
		assert.Contains(t, logs[3].Message, "超时")
	})

	t.Run("every other source logs a warning", func(t *testing.T) {
		for _, s := range Default().Sources {
			if s.ID == 4 {
				continue
			}
			assert.Equal(t, LogWarning, LogsFor(s.ID)[3].Level, "source %d", s.ID)
		}
	})

	t.Run("summary counts statuses", func(t *testing.T) {
		s := Summarize(Default().Sources)
		assert.Equal(t, Summary{Total: 7, Normal: 5, Error: 1}, s)
	})

	t.Run("config is prefilled from the source", func(t *testing.T) {
		src := Default().Sources[0]
		cfg := ConfigFor(src)
		assert.Equal(t, src.Name, cfg.TaskName)
		assert.Equal(t, SyncStrategies[0], cfg.Strategy)
		assert.True(t, cfg.AutoClean)
	})
}

func TestQueryTables(t *testing.T) {
	assert.Equal(t, TableAddress, TableFor(SubAddress))
	assert.Equal(t, TableChanges, TableFor(SubChanges))
	for _, sub := range []SubModule{SubHousehold, SubMovements, SubFloating, SubFloatingLinked, SubPermitAccept, SubPermitCard} {
		assert.Equal(t, TablePerson, TableFor(sub))
	}

	_, ok := ParseSubModule("nope")
	assert.False(t, ok)
	sub, ok := ParseSubModule("changes")
	require.True(t, ok)
	assert.Equal(t, "变更更正查询", sub.Label())

	cols := Columns(SubAddress)
	require.Len(t, cols, 4)
	addr := Default().Records[0]
	assert.True(t, addr.IsAddress())
	assert.Equal(t, "建筑物", addr.Cell(cols[0].Key))
}

func TestParseOverride(t *testing.T) {
	t.Run("replaces only the sections present", func(t *testing.T) {
		d, err := Parse([]byte(`
[[candidates]]
id = 9
name = "李四"
id_card = "370700000000000000"
address = "某街"
status = "正常"
`))
		require.NoError(t, err)
		require.Len(t, d.Candidates, 1)
		assert.Equal(t, "李四", d.Candidates[0].Name)
		assert.Len(t, d.Persons, 7)
	})

	t.Run("rejects a graph without root", func(t *testing.T) {
		_, err := Parse([]byte(`
[[persons]]
id = "1"
name = "甲"
x = 10.0
y = 10.0
`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed toml", func(t *testing.T) {
		_, err := Parse([]byte("[[persons"))
		assert.Error(t, err)
	})

	t.Run("reads what Write produced", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, Default()))

		path := filepath.Join(t.TempDir(), "dataset.toml")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

		d, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Default().Persons, d.Persons)
	})
}

func TestContentFor(t *testing.T) {
	node, ok := Default().Graph().Node("2")
	require.True(t, ok)

	archive := ContentFor(OverlayArchive, node)
	assert.Equal(t, "人员全息档案", archive.Title)
	assert.Equal(t, "张强", archive.Name)
	require.NotNil(t, archive.Archive)
	assert.Nil(t, archive.Trajectory)
	assert.Len(t, archive.Archive.Tags, 4)

	trajectory := ContentFor(OverlayTrajectory, node)
	require.NotNil(t, trajectory.Trajectory)
	assert.Nil(t, trajectory.Archive)
	require.Len(t, trajectory.Trajectory.Activities, 3)
	assert.Equal(t, "2023-10-27", trajectory.Trajectory.Activities[0].Date)
	assert.Equal(t, "2023-10-25", trajectory.Trajectory.Activities[2].Date)

	_, ok = ParseOverlayKind("map")
	assert.False(t, ok)
}

func TestDetailFor(t *testing.T) {
	var building, person Record
	for _, r := range Default().Records {
		if r.Table == TableAddress && r.ID == 1 {
			building = r
		}
		if r.Table == TablePerson && r.ID == 2 {
			person = r
		}
	}

	d := DetailFor(building)
	assert.Equal(t, "地址详情", d.Title)
	assert.Equal(t, "370702001001", d.Subheading)
	assert.Equal(t, []string{KindBuilding}, d.Badges)
	assert.NotEmpty(t, d.ImageURL)
	assert.Len(t, d.Fields, 3)

	d = DetailFor(person)
	assert.Equal(t, "人员档案", d.Title)
	assert.Equal(t, "打印档案", d.Action)
	assert.Contains(t, d.Fields, Field{"状态", "注销"})
	assert.NotContains(t, d.Fields, Field{"变更类型", ""})

	person.Detail = ""
	assert.Equal(t, FallbackRecordDetail, DetailFor(person).Body)
}
