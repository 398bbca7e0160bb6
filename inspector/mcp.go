package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ofriw/inspect-mcp/kit"
)

// TargetProvider resolves a URL to a connected inspection target. The
// release func must be called when the call is done; it closes any tab the
// provider had to open.
type TargetProvider interface {
	Acquire(ctx context.Context, url string) (Target, func(), error)
}

// InspectionRecord is the audit-trail summary of one inspection call.
type InspectionRecord struct {
	Selector  string
	URL       string
	Matched   int
	ErrorCode string
	Duration  time.Duration
}

// Recorder persists inspection records. Implementations must not block the
// calling path.
type Recorder interface {
	Record(ctx context.Context, rec InspectionRecord)
}

// Service binds the inspection pipeline to target acquisition and exposes
// it as an MCP tool.
type Service struct {
	ins     *Inspector
	targets TargetProvider
	rec     Recorder
	log     *slog.Logger
}

// NewService builds a Service. rec may be nil to disable audit recording.
func NewService(ins *Inspector, targets TargetProvider, rec Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{ins: ins, targets: targets, rec: rec, log: log}
}

// RegisterMCP registers the inspect_element tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "inspect_element",
		Description: "Inspect DOM elements on a page: box model geometry, computed styles " +
			"grouped by concern, matching cascade rules, pairwise layout relationships, " +
			"and an annotated screenshot. Optionally applies temporary CSS edits and " +
			"auto-adjusts viewport position and zoom before capture.",
		InputSchema: inputSchema(map[string]any{
			"css_selector": map[string]any{
				"type":        "string",
				"description": "CSS selector for the element(s) to inspect",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "URL of the page, matched against open tabs or newly navigated",
			},
			"property_groups": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Style groups to include: layout, box, flexbox, grid, typography, colors, visual, positioning, custom. Default: layout, box, typography, colors",
			},
			"css_edits": map[string]any{
				"type":        "object",
				"description": "Temporary inline style edits (property -> value) applied before measurement",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum elements to inspect (1-20, default 10)",
			},
			"auto_center": map[string]any{
				"type":        "boolean",
				"description": "Scroll the element(s) toward the viewport center when off-center (default true)",
			},
			"auto_zoom": map[string]any{
				"type":        "boolean",
				"description": "Pick a zoom factor from element coverage (default true)",
			},
			"zoom_factor": map[string]any{
				"type":        "number",
				"description": "Explicit zoom factor (0.5-3.0), overrides auto_zoom",
			},
		}, []string{"css_selector", "url"}),
	}

	endpoint := kit.Chain(s.logCalls)(func(ctx context.Context, req any) (any, error) {
		return s.Inspect(ctx, req.(*InspectArgs))
	})

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var args InspectArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &args}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// logCalls is endpoint middleware logging every tool invocation with its
// transport, request id and latency. The transport defaults to stdio; the
// HTTP handler in cmd enriches the context with its own values.
func (s *Service) logCalls(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		attrs := []any{
			"transport", kit.GetTransport(ctx),
			"duration", time.Since(start),
		}
		if id := kit.GetRequestID(ctx); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		if args, ok := req.(*InspectArgs); ok {
			attrs = append(attrs, "selector", args.CSSSelector, "url", args.URL)
		}
		if err != nil {
			attrs = append(attrs, "error", err)
			s.log.Warn("inspector: tool call failed", attrs...)
		} else {
			s.log.Info("inspector: tool call", attrs...)
		}
		return resp, err
	}
}

// Inspect acquires a target for the URL, runs the pipeline, and records
// the outcome. Errors are prefixed with their stable code so callers can
// branch without parsing prose.
func (s *Service) Inspect(ctx context.Context, args *InspectArgs) (*Result, error) {
	start := time.Now()

	target, release, err := s.targets.Acquire(ctx, args.URL)
	if err != nil {
		s.record(ctx, args, 0, err, start)
		return nil, fmt.Errorf("%s: %w", ErrorCode(err), err)
	}
	defer release()

	res, err := s.ins.Inspect(ctx, target, *args)
	if err != nil {
		s.record(ctx, args, 0, err, start)
		return nil, fmt.Errorf("%s: %w", ErrorCode(err), err)
	}

	s.record(ctx, args, res.matched(), nil, start)
	return res, nil
}

func (s *Service) record(ctx context.Context, args *InspectArgs, matched int, err error, start time.Time) {
	if s.rec == nil {
		return
	}
	code := ""
	if err != nil {
		code = ErrorCode(err)
	}
	s.rec.Record(ctx, InspectionRecord{
		Selector:  args.CSSSelector,
		URL:       args.URL,
		Matched:   matched,
		ErrorCode: code,
		Duration:  time.Since(start),
	})
}

func (r *Result) matched() int {
	if r.Multi != nil {
		return len(r.Multi.Elements)
	}
	if r.Single != nil {
		return 1
	}
	return 0
}

// MCPContent renders the result as a JSON text block plus the annotated
// screenshot as an image block.
func (r *Result) MCPContent() []mcp.Content {
	var payload any
	if r.Single != nil {
		payload = r.Single
	} else {
		payload = r.Multi
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}

	content := []mcp.Content{&mcp.TextContent{Text: string(data)}}
	if png := r.PNG(); len(png) > 0 {
		content = append(content, &mcp.ImageContent{Data: png, MIMEType: "image/png"})
	}
	return content
}
