package dataset

// SourceStatus is the sync state of an upstream data source
type SourceStatus string

const (
	SourceNormal  SourceStatus = "normal"
	SourceSyncing SourceStatus = "syncing"
	SourceError   SourceStatus = "error"
)

// Label returns the Chinese badge text for the status
func (s SourceStatus) Label() string {
	switch s {
	case SourceNormal:
		return "正常"
	case SourceSyncing:
		return "同步中"
	case SourceError:
		return "异常"
	}
	return ""
}

// Source is one row of the aggregation monitor
type Source struct {
	ID         int64        `json:"id" toml:"id"`
	Name       string       `json:"name" toml:"name"`
	Type       string       `json:"type" toml:"type"`
	Status     SourceStatus `json:"status" toml:"status"`
	LastUpdate string       `json:"lastUpdate" toml:"last_update"`
	Count      string       `json:"count" toml:"count"`
}

// DataField describes one column of a source table
type DataField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// LogLevel of a sync log entry
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one line of a source's sync log
type LogEntry struct {
	ID      int64    `json:"id"`
	Time    string   `json:"time"`
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

// SyncConfig is the editable sync job shown in the config modal
type SyncConfig struct {
	SourceID   int64    `json:"sourceId"`
	TaskName   string   `json:"taskName"`
	Strategy   string   `json:"strategy"`
	Strategies []string `json:"strategies"`
	URL        string   `json:"url"`
	User       string   `json:"user"`
	Password   string   `json:"password"`
	AutoClean  bool     `json:"autoClean"`
}

// Summary is the header of the aggregation monitor
type Summary struct {
	Total  int `json:"total"`
	Normal int `json:"normal"`
	Error  int `json:"error"`
}

// StructureTable is the physical table name shown in the structure modal.
const StructureTable = "T_POP_HJ_BASIC"

// householdSourceID is the source whose structure is the household base table.
const householdSourceID = 6

// flakySourceID is the source whose connection keeps timing out.
const flakySourceID = 4

var sources = []Source{
	{ID: 6, Name: "户籍人口基础数据", Type: "核心库", Status: SourceNormal, LastUpdate: "2023-10-27 14:45:00", Count: "9,380,123"},
	{ID: 7, Name: "户籍业务办理数据", Type: "业务流", Status: SourceSyncing, LastUpdate: "2023-10-27 14:40:00", Count: "452,100"},
	{ID: 1, Name: "民政局婚姻登记数据", Type: "外部交换", Status: SourceNormal, LastUpdate: "2023-10-27 12:00:00", Count: "12,405"},
	{ID: 2, Name: "卫健委出生人口数据", Type: "外部交换", Status: SourceNormal, LastUpdate: "2023-10-27 10:30:00", Count: "8,203"},
	{ID: 3, Name: "旅馆业住宿登记信息", Type: "社会采集", Status: SourceNormal, LastUpdate: "2023-10-27 14:30:00", Count: "45,100"},
	{ID: 4, Name: "网约房入住信息", Type: "社会采集", Status: SourceError, LastUpdate: "2023-10-26 23:00:00", Count: "2,301"},
	{ID: 5, Name: "社保缴纳记录", Type: "外部交换", Status: SourceNormal, LastUpdate: "2023-10-27 09:00:00", Count: "890,221"},
}

var householdFields = []DataField{
	{Name: "GMSFHM", Type: "VARCHAR(18)", Description: "公民身份号码 (主键)"},
	{Name: "XM", Type: "VARCHAR(50)", Description: "姓名"},
	{Name: "XB", Type: "CHAR(1)", Description: "性别代码"},
	{Name: "CSRQ", Type: "DATE", Description: "出生日期"},
	{Name: "MZ", Type: "VARCHAR(10)", Description: "民族"},
	{Name: "HH", Type: "VARCHAR(20)", Description: "户号"},
	{Name: "HKSZD", Type: "VARCHAR(200)", Description: "户口所在地详址"},
}

var businessFields = []DataField{
	{Name: "YWID", Type: "VARCHAR(32)", Description: "业务流水号"},
	{Name: "SLR_ID", Type: "VARCHAR(18)", Description: "受理人身份证号"},
	{Name: "YWLX", Type: "VARCHAR(20)", Description: "业务类型 (迁入/迁出/注销)"},
	{Name: "BLSJ", Type: "DATETIME", Description: "办理时间"},
	{Name: "BLDW", Type: "VARCHAR(50)", Description: "办理单位代码"},
}

// StructureFor returns the column layout of a source
func StructureFor(sourceID int64) []DataField {
	if sourceID == householdSourceID {
		return append([]DataField(nil), householdFields...)
	}
	return append([]DataField(nil), businessFields...)
}

// LogsFor returns the last day of sync log lines of a source
func LogsFor(sourceID int64) []LogEntry {
	last := LogEntry{ID: 4, Time: "2023-10-27 10:15:23", Level: LogWarning, Message: "部分字段格式不匹配，已自动清洗。"}
	if sourceID == flakySourceID {
		last.Level = LogError
		last.Message = "连接源数据库超时，重试 3 次失败。"
	}

	return []LogEntry{
		{ID: 1, Time: "2023-10-27 14:45:01", Level: LogInfo, Message: "增量同步完成，新增记录 12 条，更新 5 条。"},
		{ID: 2, Time: "2023-10-27 14:40:00", Level: LogInfo, Message: "开始执行定时同步任务..."},
		{ID: 3, Time: "2023-10-27 12:00:00", Level: LogInfo, Message: "全量校验完成，数据一致性 99.98%。"},
		last,
	}
}

// SyncStrategies lists the selectable sync strategies, default first.
var SyncStrategies = []string{"实时同步 (CDC)", "定时增量 (每15分钟)", "定时全量 (每日凌晨)"}

// ConfigFor returns the sync job settings of a source
func ConfigFor(s Source) SyncConfig {
	return SyncConfig{
		SourceID:   s.ID,
		TaskName:   s.Name,
		Strategy:   SyncStrategies[0],
		Strategies: append([]string(nil), SyncStrategies...),
		URL:        "jdbc:mysql://10.X.X.X:3306/weifang_pop_db?useSSL=false",
		User:       "sync_user_ro",
		Password:   "******",
		AutoClean:  true,
	}
}

// Summarize counts sources per status
func Summarize(list []Source) Summary {
	s := Summary{Total: len(list)}
	for _, src := range list {
		switch src.Status {
		case SourceNormal:
			s.Normal++
		case SourceError:
			s.Error++
		}
	}
	return s
}

// AccessTypes lists the kinds of upstream systems a new source can connect to.
var AccessTypes = []string{"MySQL 数据库", "Oracle 数据库", "REST API 接口", "FTP 文件服务器"}

// ImportFormats lists the spreadsheet formats accepted by manual import.
var ImportFormats = []string{".xlsx", ".xls", ".csv"}

// ImportMaxBytes is the upload limit of a manual import.
const ImportMaxBytes = 50 << 20
