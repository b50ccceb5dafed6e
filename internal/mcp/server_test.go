package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	mcpserver "wayfarer/internal/mcp"
	"wayfarer/internal/store"
	"wayfarer/pkg/journey"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

// writeGraph drops a three-screen checkout export into a temp dir:
// Home -> Pricing -> Checkout, with a back edge from Pricing.
func writeGraph(t *testing.T) string {
	t.Helper()
	doc := `{
		"name": "checkout",
		"nodes": [
			{"id": 1, "name": "Home"},
			{"id": 2, "name": "Pricing"},
			{"id": 3, "name": "Checkout"}
		],
		"edges": [
			{"source_screen_id": "1", "destination_screen_id": "2", "linkId": 10, "click_target": "See plans", "user_intent": "compare pricing"},
			{"source_screen_id": "2", "destination_screen_id": "3", "linkId": 11, "click_target": "Buy now", "user_intent": "start checkout"},
			{"source_screen_id": "2", "destination_screen_id": "1", "linkId": 12, "click_target": "Back", "user_intent": "return home"}
		]
	}`
	path := filepath.Join(t.TempDir(), "checkout.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	return path
}

func newTestServer(t *testing.T) *mcpserver.Server {
	t.Helper()
	return mcpserver.NewServer(store.NewMemStore())
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, errText(res))
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatalf("no text content in tool result")
	return nil
}

// callToolErr invokes a tool expecting a tool-level error and returns
// its message.
func callToolErr(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): transport error: %v", name, err)
	}
	if !res.IsError {
		t.Fatalf("CallTool(%s): expected IsError=true", name)
	}
	return errText(res)
}

func errText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"run_session":   false,
		"run_cohort":    false,
		"list_personas": false,
		"get_session":   false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestServer_RunSession_SavesTrace(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	graph := writeGraph(t)
	runResult := callTool(t, ctx, session, "run_session", map[string]any{
		"graph":     graph,
		"persona":   "explorer",
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
		"seed":      7,
	})

	sessionID, _ := runResult["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("expected non-empty session_id, got %v", runResult["session_id"])
	}
	if outcome, _ := runResult["outcome"].(string); outcome != "reached-target" {
		t.Fatalf("outcome = %v, want reached-target", runResult["outcome"])
	}
	if name, _ := runResult["outcome_name"].(string); name != "Reached Target" {
		t.Errorf("outcome_name = %v, want Reached Target", runResult["outcome_name"])
	}
	if steps, _ := runResult["steps"].(float64); steps != 2 {
		t.Errorf("steps = %v, want 2", runResult["steps"])
	}
	if final, _ := runResult["final_screen_id"].(float64); final != 3 {
		t.Errorf("final_screen_id = %v, want 3", runResult["final_screen_id"])
	}
	if narration, _ := runResult["narration"].(string); narration == "" {
		t.Error("expected non-empty narration")
	}

	// The trace must be readable back through get_session.
	getResult := callTool(t, ctx, session, "get_session", map[string]any{
		"session_id": sessionID,
	})
	trace, ok := getResult["trace"].(map[string]any)
	if !ok {
		t.Fatalf("expected trace object, got %v", getResult["trace"])
	}
	if outcome, _ := trace["outcome"].(string); outcome != "reached-target" {
		t.Errorf("stored trace outcome = %v, want reached-target", trace["outcome"])
	}
	summary, ok := getResult["summary"].(map[string]any)
	if !ok {
		t.Fatalf("expected summary object, got %v", getResult["summary"])
	}
	if persona, _ := summary["persona"].(string); persona != "explorer" {
		t.Errorf("summary persona = %v, want explorer", summary["persona"])
	}
}

func TestServer_RunSession_BadRoute(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	msg := callToolErr(t, ctx, session, "run_session", map[string]any{
		"graph":     writeGraph(t),
		"goal":      "buy a plan",
		"source_id": 99,
		"target_id": 3,
	})
	if !strings.Contains(msg, "not in graph") {
		t.Errorf("error %q does not mention the missing screen", msg)
	}
}

func TestServer_RunSession_UnknownPersona(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	msg := callToolErr(t, ctx, session, "run_session", map[string]any{
		"graph":     writeGraph(t),
		"persona":   "nobody",
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
	})
	if !strings.Contains(msg, "available:") {
		t.Errorf("error %q does not list available presets", msg)
	}
}

func TestServer_RunSession_MissingGraph(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	callToolErr(t, ctx, session, "run_session", map[string]any{
		"graph":     filepath.Join(t.TempDir(), "nope.json"),
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
	})

	callToolErr(t, ctx, session, "run_session", map[string]any{
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
	})
}

func TestServer_RunCohort_AllPresets(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	listResult := callTool(t, ctx, session, "list_personas", map[string]any{})
	total, _ := listResult["total"].(float64)
	if total < 1 {
		t.Fatalf("expected at least one preset, got %v", listResult["total"])
	}

	cohortResult := callTool(t, ctx, session, "run_cohort", map[string]any{
		"graph":     writeGraph(t),
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
		"base_seed": 42,
		"workers":   3,
	})

	runID, _ := cohortResult["run_id"].(string)
	if runID == "" {
		t.Fatalf("expected non-empty run_id, got %v", cohortResult["run_id"])
	}
	if got, _ := cohortResult["total"].(float64); got != total {
		t.Errorf("total = %v, want %v (one session per preset)", got, total)
	}
	if rate, _ := cohortResult["completion_rate"].(float64); rate != 1 {
		t.Errorf("completion_rate = %v, want 1 (direct edge to target)", cohortResult["completion_rate"])
	}
	outcomes, ok := cohortResult["outcomes"].(map[string]any)
	if !ok {
		t.Fatalf("expected outcomes map, got %v", cohortResult["outcomes"])
	}
	if reached, _ := outcomes["reached-target"].(float64); reached != total {
		t.Errorf("outcomes[reached-target] = %v, want %v", outcomes["reached-target"], total)
	}
	ids, ok := cohortResult["session_ids"].([]any)
	if !ok || len(ids) != int(total) {
		t.Fatalf("session_ids = %v, want %v ids", cohortResult["session_ids"], total)
	}

	// Aggregate and per-session rows land in the shared store.
	run, err := srv.Store.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun(%s): %v", runID, err)
	}
	if run.Sessions != int(total) {
		t.Errorf("stored run sessions = %d, want %v", run.Sessions, total)
	}
	rows, err := srv.Store.ListSessionsByRun(runID)
	if err != nil {
		t.Fatalf("ListSessionsByRun: %v", err)
	}
	if len(rows) != int(total) {
		t.Errorf("stored session rows = %d, want %v", len(rows), total)
	}

	// Any cohort session can be fetched by id over the wire.
	getResult := callTool(t, ctx, session, "get_session", map[string]any{
		"session_id": ids[0].(string),
	})
	if _, ok := getResult["trace"].(map[string]any); !ok {
		t.Errorf("expected trace for cohort session, got %v", getResult["trace"])
	}
}

func TestServer_RunCohort_NamedPersonas(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	cohortResult := callTool(t, ctx, session, "run_cohort", map[string]any{
		"graph":     writeGraph(t),
		"personas":  []string{"skeptic", "explorer"},
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
	})
	if got, _ := cohortResult["total"].(float64); got != 2 {
		t.Errorf("total = %v, want 2", cohortResult["total"])
	}
}

func TestServer_ListPersonas(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	result := callTool(t, ctx, session, "list_personas", map[string]any{})
	list, ok := result["personas"].([]any)
	if !ok || len(list) == 0 {
		t.Fatalf("expected non-empty personas list, got %v", result["personas"])
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		t.Fatalf("expected persona object, got %v", list[0])
	}
	for _, field := range []string{"name", "risk_appetite", "communication_style", "experience_level"} {
		if v, _ := first[field].(string); v == "" {
			t.Errorf("persona summary missing %s: %v", field, first)
		}
	}
}

func TestServer_MetricsCounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := journey.NewMetricsObserver(reg)
	srv := mcpserver.NewServer(store.NewMemStore(), mcpserver.WithMetrics(metrics))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	callTool(t, ctx, session, "run_session", map[string]any{
		"graph":     writeGraph(t),
		"goal":      "buy a plan",
		"source_id": 1,
		"target_id": 3,
		"seed":      1,
	})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var reached float64
	for _, mf := range families {
		if mf.GetName() != "wayfarer_sessions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == "reached-target" {
					reached = metric.GetCounter().GetValue()
				}
			}
		}
	}
	if reached != 1 {
		t.Errorf("wayfarer_sessions_total{outcome=reached-target} = %v, want 1", reached)
	}
}

func TestServer_GetSession_NotFound(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	defer session.Close()

	msg := callToolErr(t, ctx, session, "get_session", map[string]any{
		"session_id": "ghost",
	})
	if !strings.Contains(msg, "ghost") {
		t.Errorf("error %q does not name the missing session", msg)
	}

	callToolErr(t, ctx, session, "get_session", map[string]any{})
}
