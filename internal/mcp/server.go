package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/export"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/kinship"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "rkhl"
	ServerVersion   = "1.0.0"
)

// defaultLimit caps rows per table in tool output.
const defaultLimit = 50

// Server answers MCP tool calls over line-delimited JSON-RPC
type Server struct {
	db       *storage.DB
	store    *lookup.Store
	kin      *kinship.Analyzer
	exporter *export.Exporter
	log      *slog.Logger
	input    io.Reader
	output   io.Writer
}

// NewServer creates a new MCP server on stdin/stdout
func NewServer(db *storage.DB, store *lookup.Store, log *slog.Logger) *Server {
	return &Server{
		db:       db,
		store:    store,
		kin:      kinship.NewAnalyzer(db),
		exporter: export.NewExporter(db),
		log:      log,
		input:    os.Stdin,
		output:   os.Stdout,
	}
}

// JSON-RPC types
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// MCP specific types
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run serves requests until the input closes or ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.log.Debug("无法解析请求", "error", err)
			s.sendError(nil, CodeParseError, "Parse error")
			continue
		}

		s.handleRequest(ctx, &req)
	}

	return scanner.Err()
}

func (s *Server) handleRequest(ctx context.Context, req *Request) {
	switch req.Method {
	case "initialize":
		s.sendResult(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: ServerName, Version: ServerVersion},
			Capabilities:    Capabilities{Tools: &ToolsCapability{}},
		})
	case "initialized", "notifications/initialized":
		// Notification, no response needed
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	case "tools/list":
		s.sendResult(req.ID, map[string]interface{}{"tools": tools})
	case "tools/call":
		s.handleToolsCall(ctx, req)
	default:
		s.sendError(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

var tools = []Tool{
	{
		Name:        "search",
		Description: "检索人口数据库，返回候选人员列表以及家族图谱中姓名匹配的人员",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "姓名或身份证号（支持模糊匹配）",
				},
				"limit": {
					Type:        "number",
					Description: "最多返回的人员数量，默认 50",
					Default:     defaultLimit,
				},
			},
			Required: []string{"query"},
		},
	},
	{
		Name:        "graph",
		Description: "生成查询对象的家族关系图谱，包含 Mermaid 关系图和人员列表",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"mermaid": {
					Type:        "boolean",
					Description: "是否包含 Mermaid 关系图，默认 true",
					Default:     true,
				},
			},
		},
	},
	{
		Name:        "node",
		Description: "查看图谱中某个人员的详细信息",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {
					Type:        "string",
					Description: "人员节点 ID",
				},
			},
			Required: []string{"id"},
		},
	},
	{
		Name:        "relatives",
		Description: "分析人员的上层关系人（长辈）和下层关系人（晚辈）",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"person": {
					Type:        "string",
					Description: "人员节点 ID 或姓名",
				},
				"up": {
					Type:        "number",
					Description: "向上查询深度，0表示无限",
				},
				"down": {
					Type:        "number",
					Description: "向下查询深度，0表示无限",
				},
			},
			Required: []string{"person"},
		},
	},
	{
		Name:        "sources",
		Description: "查看数据汇聚监控：数据源列表，或某个数据源的结构、日志、配置",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {
					Type:        "number",
					Description: "数据源 ID，不填则列出全部数据源",
				},
				"view": {
					Type:        "string",
					Description: "查看内容：structure（数据结构）、logs（运行日志）、config（同步配置），默认 logs",
					Default:     "logs",
				},
			},
		},
	},
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, CodeInvalidParams, "Invalid params")
		return
	}

	var result string
	var isError bool

	switch params.Name {
	case "search":
		result, isError = s.toolSearch(ctx, params.Arguments)
	case "graph":
		result, isError = s.toolGraph(params.Arguments)
	case "node":
		result, isError = s.toolNode(ctx, params.Arguments)
	case "relatives":
		result, isError = s.toolRelatives(params.Arguments)
	case "sources":
		result, isError = s.toolSources(ctx, params.Arguments)
	default:
		result = fmt.Sprintf("Unknown tool: %s", params.Name)
		isError = true
	}

	s.sendResult(req.ID, ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: result}},
		IsError: isError,
	})
}

func (s *Server) toolSearch(ctx context.Context, args map[string]interface{}) (string, bool) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "错误：需要提供检索内容", true
	}
	limit := intArg(args, "limit", defaultLimit)

	candidates, err := s.store.SearchPersons(ctx, query)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	matches, err := s.db.FindPersonsByName(query)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## 检索结果: %s\n\n", query)

	sb.WriteString("### 候选人员\n\n")
	if len(candidates) == 0 {
		sb.WriteString("_未找到相关人员信息_\n\n")
	} else {
		sb.WriteString("| ID | 姓名 | 身份证号 | 户籍地址 | 状态 |\n")
		sb.WriteString("|----|------|----------|----------|------|\n")
		for _, c := range head(candidates, limit) {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n", c.ID, c.Name, c.IDCard, c.Address, c.Status)
		}
		writeMore(&sb, len(candidates), limit)
		sb.WriteString("\n")
	}

	if len(matches) > 0 {
		sb.WriteString("### 图谱中的匹配人员\n\n")
		sb.WriteString("| 节点 | 姓名 | 关系 | 身份证号 |\n")
		sb.WriteString("|------|------|------|----------|\n")
		for _, p := range head(matches, limit) {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", p.ID, p.Name, p.RelationTitle, p.IDCard)
		}
		writeMore(&sb, len(matches), limit)
	}
	return sb.String(), false
}

func (s *Server) toolGraph(args map[string]interface{}) (string, bool) {
	opts := export.DefaultExportOptions()
	if m, ok := args["mermaid"].(bool); ok {
		opts.IncludeMermaid = m
	}

	var sb strings.Builder
	if err := s.exporter.ExportGraph(&sb, opts); err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	return sb.String(), false
}

func (s *Server) toolNode(ctx context.Context, args map[string]interface{}) (string, bool) {
	id := stringArg(args, "id")
	if id == "" {
		return "错误：需要提供人员节点 ID", true
	}

	p, err := s.store.Person(ctx, id)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	d := graph.DetailOf(p)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s（%s）\n\n", d.Name, d.RelationTitle)
	fmt.Fprintf(&sb, "**身份证号:** %s\n\n", d.IDCard)
	fmt.Fprintf(&sb, "**户籍地址:** %s\n\n", d.Address)
	fmt.Fprintf(&sb, "**备注信息:** %s\n", d.Details)
	if d.Hint != "" {
		fmt.Fprintf(&sb, "\n> %s\n", d.Hint)
	}
	return sb.String(), false
}

func (s *Server) toolRelatives(args map[string]interface{}) (string, bool) {
	person := stringArg(args, "person")
	if person == "" {
		return "错误：需要提供人员 ID 或姓名", true
	}

	report, err := s.kin.Analyze(person, intArg(args, "up", 0), intArg(args, "down", 0))
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}
	return report.FormatMarkdown(), false
}

func (s *Server) toolSources(ctx context.Context, args map[string]interface{}) (string, bool) {
	if _, ok := args["id"]; !ok {
		var sb strings.Builder
		if err := s.exporter.ExportAggregation(&sb, export.DefaultExportOptions()); err != nil {
			return fmt.Sprintf("错误：%v", err), true
		}
		return sb.String(), false
	}

	id := int64(intArg(args, "id", 0))
	src, err := s.store.Source(ctx, id)
	if err != nil {
		return fmt.Sprintf("错误：%v", err), true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", src.Name)
	fmt.Fprintf(&sb, "**类型:** %s | **状态:** %s | **最后更新:** %s | **数据量:** %s\n\n",
		src.Type, src.Status.Label(), src.LastUpdate, src.Count)

	switch v := stringArg(args, "view"); v {
	case "", "logs":
		logs, err := s.store.Logs(ctx, id)
		if err != nil {
			return fmt.Sprintf("错误：%v", err), true
		}
		sb.WriteString("### 系统运行日志\n\n")
		sb.WriteString("| 时间 | 级别 | 内容 |\n")
		sb.WriteString("|------|------|------|\n")
		for _, l := range logs {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", l.Time, strings.ToUpper(string(l.Level)), l.Message)
		}
	case "structure":
		fields, err := s.store.Structure(ctx, id)
		if err != nil {
			return fmt.Sprintf("错误：%v", err), true
		}
		fmt.Fprintf(&sb, "### 数据结构 `%s`\n\n", dataset.StructureTable)
		sb.WriteString("| 字段 | 类型 | 说明 |\n")
		sb.WriteString("|------|------|------|\n")
		for _, f := range fields {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", f.Name, f.Type, f.Description)
		}
	case "config":
		c, err := s.store.SyncConfig(ctx, id)
		if err != nil {
			return fmt.Sprintf("错误：%v", err), true
		}
		sb.WriteString("### 同步配置\n\n")
		fmt.Fprintf(&sb, "- 任务名称: %s\n", c.TaskName)
		fmt.Fprintf(&sb, "- 同步策略: %s\n", c.Strategy)
		fmt.Fprintf(&sb, "- 连接地址: `%s`\n", c.URL)
		fmt.Fprintf(&sb, "- 用户名: %s\n", c.User)
		fmt.Fprintf(&sb, "- 自动清洗: %t\n", c.AutoClean)
	default:
		return fmt.Sprintf("错误：未知的查看内容 %q（可选 structure、logs、config）", v), true
	}
	return sb.String(), false
}

// Helper functions

func stringArg(args map[string]interface{}, name string) string {
	switch v := args[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func intArg(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		if v >= 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func writeMore(sb *strings.Builder, total, limit int) {
	if limit > 0 && total > limit {
		fmt.Fprintf(sb, "\n_（共 %d 个，仅显示前 %d 个）_\n", total, limit)
	}
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id interface{}, code int, message string) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	})
}

func (s *Server) send(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("无法编码响应", "error", err)
		return
	}
	fmt.Fprintf(s.output, "%s\n", data)
}
