package graph

// Gender is only used to pick a node's color.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// PersonNode represents one individual in a family constellation
type PersonNode struct {
	ID            string  `json:"id" toml:"id"`
	Name          string  `json:"name" toml:"name"`
	IDCard        string  `json:"idCard" toml:"id_card"`
	RelationChar  string  `json:"relationChar" toml:"relation_char"`   // 单字关系，如 "父"
	RelationTitle string  `json:"relationTitle" toml:"relation_title"` // 关系称谓，如 "父亲"
	Address       string  `json:"address,omitempty" toml:"address"`
	Status        string  `json:"status,omitempty" toml:"status"`
	Details       string  `json:"details,omitempty" toml:"details"`
	X             float64 `json:"x" toml:"x"` // 横向百分比坐标 [0,100]
	Y             float64 `json:"y" toml:"y"` // 纵向百分比坐标 [0,100]
	IsRoot        bool    `json:"isRoot,omitempty" toml:"is_root"`
	Gender        Gender  `json:"gender,omitempty" toml:"gender"`
}

// SearchResult is a candidate person returned by the person search
type SearchResult struct {
	ID      int64  `json:"id" toml:"id"`
	Name    string `json:"name" toml:"name"`
	IDCard  string `json:"idCard" toml:"id_card"`
	Address string `json:"address" toml:"address"`
	Status  string `json:"status" toml:"status"`
}

// StatusNormal is the status tag of a person without any flag.
const StatusNormal = "正常"
