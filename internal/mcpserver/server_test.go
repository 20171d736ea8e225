package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/tagfile/internal/gallery"
	"github.com/starford/tagfile/internal/storage"
	"github.com/starford/tagfile/internal/testutil"
)

func testServer(t *testing.T, files ...string) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestGallery(t, files...)
	svc := gallery.NewService(store, testutil.TestDB(t), gallery.Options{Logger: testutil.QuietLogger()})
	if _, err := svc.Load(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so the handlers are called directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"parse_filename":      srv.parseFilename,
		"check_filename":      srv.checkFilename,
		"list_tags":           srv.listTags,
		"list_untagged":       srv.listUntagged,
		"search_files":        srv.searchFiles,
		"compose_name":        srv.composeName,
		"preview_rename":      srv.previewRename,
		"rename_file":         srv.renameFile,
		"get_naming_contract": srv.getNamingContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := testServer(t)
	tools := srv.MCPServer().ListTools()
	for _, name := range []string{
		"parse_filename", "check_filename", "list_tags", "list_untagged", "search_files",
		"compose_name", "preview_rename", "rename_file", "get_naming_contract",
	} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestParseFilename(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "parse_filename", map[string]interface{}{"name": "beach - [sun, sea] - 1000.jpg"})
	var got struct {
		Base       string   `json:"base"`
		Tags       []string `json:"tags"`
		Conformant bool     `json:"conformant"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if got.Base != "beach" || !got.Conformant || len(got.Tags) != 2 || got.Tags[0] != "sun" {
		t.Errorf("parsed = %+v", got)
	}

	r = callTool(t, srv, "parse_filename", map[string]interface{}{})
	if !r.IsError {
		t.Error("missing name should be an error")
	}
}

func TestCheckFilename(t *testing.T) {
	srv, _ := testServer(t, "a.png")
	if r := callTool(t, srv, "check_filename", map[string]interface{}{"name": "a.png"}); r.IsError {
		t.Errorf("existing file: %s", resultText(r))
	}
	r := callTool(t, srv, "check_filename", map[string]interface{}{"name": "nope.png"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("missing file result = %q", resultText(r))
	}
}

func TestListTagsAndUntagged(t *testing.T) {
	srv, _ := testServer(t, "a - [x] - 1000.png", "b - [X, y] - 1000.png", "c.png")

	text := resultText(callTool(t, srv, "list_tags", map[string]interface{}{}))
	if !strings.Contains(text, `"tag": "x"`) || !strings.Contains(text, `"count": 2`) {
		t.Errorf("tags = %s", text)
	}

	if text := resultText(callTool(t, srv, "list_untagged", map[string]interface{}{})); text != "c.png" {
		t.Errorf("untagged = %q", text)
	}
}

func TestComposeAndPreview(t *testing.T) {
	srv, _ := testServer(t, "beach.png", "beach - [sea, sun] - 1000.png")
	tags := []interface{}{"sun", "sea"}

	text := resultText(callTool(t, srv, "compose_name", map[string]interface{}{"current": "beach.png", "tags": tags}))
	if text != "beach - [sea, sun]" {
		t.Errorf("compose = %q", text)
	}

	r := callTool(t, srv, "preview_rename", map[string]interface{}{"current": "beach.png", "tags": tags})
	var p gallery.Preview
	_ = json.Unmarshal([]byte(resultText(r)), &p)
	if p.Final != "beach - [sea, sun] - 1001.png" {
		t.Errorf("preview = %+v", p)
	}

	r = callTool(t, srv, "preview_rename", map[string]interface{}{"current": "beach.png"})
	if !r.IsError {
		t.Error("preview without tags or new_base should be an error")
	}
}

func TestRenameFile(t *testing.T) {
	srv, store := testServer(t, "beach.png")

	r := callTool(t, srv, "rename_file", map[string]interface{}{
		"current": "beach.png",
		"tags":    []interface{}{"sun"},
	})
	if r.IsError {
		t.Fatalf("rename: %s", resultText(r))
	}
	if !store.Exists("beach - [sun] - 1000.png") {
		t.Error("file not renamed")
	}

	r = callTool(t, srv, "rename_file", map[string]interface{}{
		"current":  "beach - [sun] - 1000.png",
		"new_base": "beach - [sun]",
	})
	if !r.IsError || !strings.Contains(resultText(r), "unchanged") {
		t.Errorf("unchanged rename result = %q", resultText(r))
	}
}

func TestSearchFiles(t *testing.T) {
	srv, _ := testServer(t, "sunset - [sky] - 1000.png", "dog.png")
	text := resultText(callTool(t, srv, "search_files", map[string]interface{}{"query": "sky"}))
	if !strings.Contains(text, "sunset - [sky] - 1000.png") || strings.Contains(text, "dog.png") {
		t.Errorf("search = %s", text)
	}
}

func TestNamingContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_naming_contract", map[string]interface{}{}))
	if !strings.Contains(text, `" - ["`) {
		t.Error("contract missing the tag delimiter")
	}

	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, err = %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != contractURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}

func TestRenameFile_EmptyTagsClears(t *testing.T) {
	srv, store := testServer(t, "beach - [sea] - 1000.png")

	r := callTool(t, srv, "rename_file", map[string]interface{}{
		"current": "beach - [sea] - 1000.png",
		"tags":    []interface{}{},
	})
	if r.IsError {
		t.Fatalf("rename: %s", resultText(r))
	}
	if !store.Exists("beach - [] - 1000.png") {
		t.Error("tags not cleared")
	}

	r = callTool(t, srv, "rename_file", map[string]interface{}{"current": "beach - [] - 1000.png"})
	if !r.IsError {
		t.Error("rename without tags or new_base should be an error")
	}
}
