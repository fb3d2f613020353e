package dataset

import (
	"github.com/zheng/rkhl/internal/graph"
)

// OverlayKind selects the content of the detail overlay.
type OverlayKind string

const (
	OverlayArchive    OverlayKind = "archive"
	OverlayTrajectory OverlayKind = "trajectory"
)

// ParseOverlayKind accepts "archive" or "trajectory".
func ParseOverlayKind(s string) (OverlayKind, bool) {
	switch OverlayKind(s) {
	case OverlayArchive, OverlayTrajectory:
		return OverlayKind(s), true
	}
	return "", false
}

// Title is the overlay header.
func (k OverlayKind) Title() string {
	if k == OverlayArchive {
		return "人员全息档案"
	}
	return "人员活动轨迹分析"
}

// OverlayLoadingText is shown while overlay content is loading.
const OverlayLoadingText = "正在调取公安业务库数据..."

// Field is a labelled value row.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ArchiveContent is the full archive view of a person.
type ArchiveContent struct {
	Household []Field  `json:"household"`
	Social    []Field  `json:"social"`
	Tags      []string `json:"tags"`
}

// Activity is one row of the recent activity list.
type Activity struct {
	Date   string `json:"date"`
	Event  string `json:"event"`
	Source string `json:"source"`
}

// TrajectoryContent is the trajectory analysis of a person.
type TrajectoryContent struct {
	HeatmapTitle   string     `json:"heatmapTitle"`
	HeatmapCaption string     `json:"heatmapCaption"`
	Activities     []Activity `json:"activities"`
}

// OverlayContent is what the overlay reveals once loaded. Exactly one of
// Archive and Trajectory is set, matching Kind.
type OverlayContent struct {
	Kind       OverlayKind        `json:"kind"`
	Title      string             `json:"title"`
	Name       string             `json:"name"`
	IDCard     string             `json:"idCard"`
	Badges     []string           `json:"badges"`
	Archive    *ArchiveContent    `json:"archive,omitempty"`
	Trajectory *TrajectoryContent `json:"trajectory,omitempty"`
}

// ContentFor builds the overlay content of a node.
func ContentFor(kind OverlayKind, n graph.PersonNode) OverlayContent {
	c := OverlayContent{
		Kind:   kind,
		Title:  kind.Title(),
		Name:   n.Name,
		IDCard: n.IDCard,
		Badges: []string{"状态正常", "已实名"},
	}

	if kind == OverlayArchive {
		c.Archive = &ArchiveContent{
			Household: []Field{
				{"曾用名", "无"},
				{"出生地", "山东省潍坊市"},
				{"籍贯", "山东潍坊"},
				{"婚姻状况", "已婚"},
				{"文化程度", "大学本科"},
			},
			Social: []Field{
				{"手机号码", "138****1234"},
				{"社保状态", "正常缴纳"},
				{"车辆信息", "鲁G***** (小型汽车)"},
				{"房产信息", "2套"},
			},
			Tags: []string{"中共党员", "退役军人", "信访重点人(无)", "吸毒前科(无)"},
		}
		return c
	}

	t := &TrajectoryContent{
		HeatmapTitle:   "近30天活动轨迹热力图",
		HeatmapCaption: "地图数据加载完毕",
	}
	for _, day := range []string{"2023-10-27", "2023-10-26", "2023-10-25"} {
		t.Activities = append(t.Activities, Activity{
			Date:   day,
			Event:  "入住 潍坊市奎文区XX酒店",
			Source: "旅馆业治安管理系统",
		})
	}
	c.Trajectory = t
	return c
}
