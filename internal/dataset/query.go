package dataset

// SubModule is one category of the comprehensive query
type SubModule string

const (
	SubAddress        SubModule = "address"
	SubHousehold      SubModule = "household"
	SubChanges        SubModule = "changes"
	SubMovements      SubModule = "movements"
	SubFloating       SubModule = "floating"
	SubFloatingLinked SubModule = "floating_linked"
	SubPermitAccept   SubModule = "permit_accept"
	SubPermitCard     SubModule = "permit_card"
)

// SubModuleInfo is a navigation entry of the query module
type SubModuleInfo struct {
	ID    SubModule `json:"id"`
	Label string    `json:"label"`
}

// SubModules in navigation order.
var SubModules = []SubModuleInfo{
	{ID: SubAddress, Label: "标准地址查询"},
	{ID: SubHousehold, Label: "户籍人口查询"},
	{ID: SubChanges, Label: "变更更正查询"},
	{ID: SubMovements, Label: "四项变动查询"},
	{ID: SubFloating, Label: "流动人口查询"},
	{ID: SubFloatingLinked, Label: "流口关联信息"},
	{ID: SubPermitAccept, Label: "居住证受理"},
	{ID: SubPermitCard, Label: "居住证证件"},
}

// ParseSubModule validates a sub-module id
func ParseSubModule(s string) (SubModule, bool) {
	for _, m := range SubModules {
		if string(m.ID) == s {
			return m.ID, true
		}
	}
	return "", false
}

// Label returns the navigation label of the sub-module
func (s SubModule) Label() string {
	for _, m := range SubModules {
		if m.ID == s {
			return m.Label
		}
	}
	return string(s)
}

// Record tables. Every sub-module reads exactly one of them.
const (
	TableAddress = "address"
	TableChanges = "changes"
	TablePerson  = "person"
)

// TableFor returns the record table a sub-module is answered from
func TableFor(s SubModule) string {
	switch s {
	case SubAddress:
		return TableAddress
	case SubChanges:
		return TableChanges
	}
	return TablePerson
}

// Address record kinds.
const (
	KindBuilding = "建筑物"
	KindUnit     = "单元"
	KindRoom     = "户室"
)

// Record is one row of a query result table. Which fields are set depends on
// the table it belongs to.
type Record struct {
	Table    string `json:"table" toml:"table"`
	ID       int64  `json:"id" toml:"id"`
	Kind     string `json:"kind,omitempty" toml:"kind"`
	Name     string `json:"name" toml:"name"`
	IDCard   string `json:"idCard,omitempty" toml:"id_card"`
	Gender   string `json:"gender,omitempty" toml:"gender"`
	Code     string `json:"code,omitempty" toml:"code"`
	Address  string `json:"address,omitempty" toml:"address"`
	Status   string `json:"status,omitempty" toml:"status"`
	Date     string `json:"date,omitempty" toml:"date"`
	Detail   string `json:"detail,omitempty" toml:"detail"`
	ImageURL string `json:"imageUrl,omitempty" toml:"image_url"`
}

// IsAddress reports whether the record describes a building, unit or room
func (r Record) IsAddress() bool {
	return r.Kind == KindBuilding || r.Kind == KindUnit || r.Kind == KindRoom
}

// Column is a result table header
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Columns returns the result table headers of a sub-module
func Columns(s SubModule) []Column {
	switch TableFor(s) {
	case TableAddress:
		return []Column{{"kind", "类型"}, {"name", "名称"}, {"code", "标准地址编码"}, {"address", "地址详址"}}
	case TableChanges:
		return []Column{{"name", "姓名"}, {"idCard", "身份证号"}, {"kind", "变更类型"}, {"date", "变更日期"}}
	}
	return []Column{{"name", "姓名"}, {"idCard", "身份证号"}, {"gender", "性别"}, {"address", "居住地址"}, {"status", "状态"}}
}

// Cell returns the value of a column key
func (r Record) Cell(key string) string {
	switch key {
	case "kind":
		return r.Kind
	case "name":
		return r.Name
	case "idCard":
		return r.IDCard
	case "gender":
		return r.Gender
	case "code":
		return r.Code
	case "address":
		return r.Address
	case "status":
		return r.Status
	case "date":
		return r.Date
	}
	return ""
}

// FallbackRecordDetail is shown when a record has no detail text.
const FallbackRecordDetail = "暂无详细描述信息。"

var records = []Record{
	{Table: TableAddress, ID: 1, Kind: KindBuilding, Name: "阳光100城市广场", Code: "370702001001", Address: "胜利东街5087号",
		Detail:   "包含单元: 5个, 户室: 1200个。该建筑物为商住两用，共有32层，配备地下停车场。",
		ImageURL: "https://images.unsplash.com/photo-1545324418-cc1a3fa10c00?q=80&w=400&auto=format&fit=crop"},
	{Table: TableAddress, ID: 2, Kind: KindUnit, Name: "阳光100城市广场-A座", Code: "37070200100101", Address: "胜利东街5087号A座",
		Detail:   "包含户室: 300个。位于小区南侧，紧邻主干道。",
		ImageURL: "https://images.unsplash.com/photo-1486325212027-8081e485255e?q=80&w=400&auto=format&fit=crop"},
	{Table: TableAddress, ID: 3, Kind: KindRoom, Name: "阳光100城市广场-A座-1001", Code: "370702001001011001", Address: "胜利东街5087号A座1001室",
		Detail:   "户主: 张三， 面积: 120平米， 用途: 住宅。",
		ImageURL: "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?q=80&w=400&auto=format&fit=crop"},

	{Table: TableChanges, ID: 1, Name: "刘洋", IDCard: "370781199502023333", Kind: "姓名变更", Date: "2023-10-01", Detail: "原名: 刘小洋, 现名: 刘洋"},
	{Table: TableChanges, ID: 2, Name: "陈晨", IDCard: "370781199808084444", Kind: "民族变更", Date: "2023-09-15", Detail: "原: 汉族, 现: 回族"},

	{Table: TablePerson, ID: 1, Name: "张伟", IDCard: "370702199001011234", Gender: "男", Address: "奎文区东风东街88号", Status: "正常", Detail: "详细档案信息..."},
	{Table: TablePerson, ID: 2, Name: "李娜", IDCard: "370702199205055678", Gender: "女", Address: "潍城区胜利西街123号", Status: "注销", Detail: "详细档案信息..."},
	{Table: TablePerson, ID: 3, Name: "王强", IDCard: "370702198812129012", Gender: "男", Address: "高新区健康东街666号", Status: "正常", Detail: "详细档案信息..."},
}

// TreeNode is an entry of the administrative division tree
type TreeNode struct {
	ID       string     `json:"id" toml:"id"`
	Label    string     `json:"label" toml:"label"`
	Expanded bool       `json:"expanded" toml:"expanded"`
	Children []TreeNode `json:"children,omitempty" toml:"children"`
}

var tree = []TreeNode{
	{ID: "370700", Label: "潍坊市", Expanded: true, Children: []TreeNode{
		{ID: "370702", Label: "奎文区", Expanded: true, Children: []TreeNode{
			{ID: "370702001", Label: "东关街道派出所"},
			{ID: "370702002", Label: "大虞街道派出所"},
			{ID: "370702003", Label: "梨园街道派出所"},
		}},
		{ID: "370703", Label: "潍城区"},
		{ID: "370704", Label: "坊子区"},
		{ID: "370705", Label: "寒亭区"},
		{ID: "370781", Label: "青州市"},
	}},
}

// RecordDetail is the slide-in drawer of one record
type RecordDetail struct {
	Title      string   `json:"title"`
	Heading    string   `json:"heading"`
	Subheading string   `json:"subheading"`
	Badges     []string `json:"badges"`
	Fields     []Field  `json:"fields"`
	Section    string   `json:"section"`
	Body       string   `json:"body"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Action     string   `json:"action"`
}

// DetailLoadingText is shown while the drawer is loading.
const DetailLoadingText = "正在调取详细档案..."

// DetailFor projects a record into the drawer layout. Address records and
// person records use different layouts.
func DetailFor(r Record) RecordDetail {
	d := RecordDetail{
		Heading: r.Name,
		Body:    r.Detail,
	}
	if d.Body == "" {
		d.Body = FallbackRecordDetail
	}

	if r.IsAddress() {
		d.Title = "地址详情"
		d.Subheading = r.Code
		d.Badges = []string{r.Kind}
		d.Section = "建筑信息概况"
		d.ImageURL = r.ImageURL
		d.Action = "查看地图定位"
		d.Fields = nonEmpty([]Field{{"名称", r.Name}, {"编码", r.Code}, {"详细地址", r.Address}})
		return d
	}

	d.Title = "人员档案"
	d.Subheading = r.IDCard
	d.Badges = []string{"状态正常", "已核验"}
	d.Section = "详细档案记录"
	d.Action = "打印档案"
	d.Fields = nonEmpty([]Field{
		{"姓名", r.Name},
		{"身份证号", r.IDCard},
		{"性别", r.Gender},
		{"变更类型", r.Kind},
		{"变更日期", r.Date},
		{"居住地址", r.Address},
		{"状态", r.Status},
	})
	return d
}

func nonEmpty(fields []Field) []Field {
	out := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
