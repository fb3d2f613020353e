package graph

const (
	FallbackAddress = "山东省潍坊市奎文区XXXX小区X号楼X单元"
	FallbackDetails = "无特殊备注信息。该人员户籍状态正常，无违法犯罪记录。"
	RootHint        = "该人员为本次关系查询的中心节点。"
)

// Detail is the read-only projection of the selected node shown in the side panel
type Detail struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IDCard        string `json:"idCard"`
	RelationChar  string `json:"relationChar"`
	RelationTitle string `json:"relationTitle"`
	Address       string `json:"address"`
	Details       string `json:"details"`
	IsRoot        bool   `json:"isRoot"`
	Hint          string `json:"hint,omitempty"`
}

// DetailOf projects a node into the detail panel, filling absent optional fields
func DetailOf(n PersonNode) Detail {
	d := Detail{
		ID:            n.ID,
		Name:          n.Name,
		IDCard:        n.IDCard,
		RelationChar:  n.RelationChar,
		RelationTitle: n.RelationTitle,
		Address:       n.Address,
		Details:       n.Details,
		IsRoot:        n.IsRoot,
	}
	if d.Address == "" {
		d.Address = FallbackAddress
	}
	if d.Details == "" {
		d.Details = FallbackDetails
	}
	if n.IsRoot {
		d.Hint = RootHint
	}
	return d
}
