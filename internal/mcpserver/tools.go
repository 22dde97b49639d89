package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"folio/internal/dispatch"
	"folio/internal/page"
)

// Tool is an MCP tool definition with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns every tool bound to w.
func (w *Workspace) Tools() []Tool {
	return []Tool{
		&ShowTool{ws: w},
		&AddTool{ws: w},
		&DeleteTool{ws: w},
		&SettingsTool{ws: w},
		&RenameTool{ws: w},
		&ReadTool{ws: w},
		&WriteTool{ws: w},
	}
}

// jsonResult renders v as indented JSON. Stored content is HTML, so it is not escaped.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(strings.TrimRight(buf.String(), "\n")), nil
}

// toolError reports a domain error (unknown path, invalid kind) to the agent.
func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// ShowTool handles outline_show.
type ShowTool struct{ ws *Workspace }

func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("outline_show",
		mcp.WithDescription(
			"List the outline in document order. Each entry has a path (\"1.2\"), kind, "+
				"display number, title, content state (empty, draft, final) and a preview.",
		),
	)
}

func (t *ShowTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		var err error
		res, err = jsonResult(map[string]any{"entries": p.Tree().Entries(false)})
		return err
	})
	return res, err
}

// AddTool handles outline_add.
type AddTool struct{ ws *Workspace }

func (t *AddTool) Definition() mcp.Tool {
	return mcp.NewTool("outline_add",
		mcp.WithDescription(
			"Add a node. With a path, appends a child (a section under a chapter, a subsection "+
				"under a section) numbered after its existing siblings. Without a path, appends a chapter.",
		),
		mcp.WithString("path",
			mcp.Description("Parent path (\"1\", \"1.2\") or qualified number. Empty adds a chapter."),
		),
		mcp.WithString("title",
			mcp.Description("Title of the new node. Defaults to the standard summary text."),
		),
	)
}

func (t *AddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	title := strings.TrimSpace(req.GetString("title", ""))
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		var out dispatch.Result
		if strings.TrimSpace(path) == "" {
			r, err := p.AddChapter(ctx, title)
			if err != nil {
				res, _ = toolError(err)
				return nil
			}
			out = r
		} else {
			parent, err := p.Resolve(path)
			if err != nil {
				res, _ = toolError(err)
				return nil
			}
			r, err := p.AddChild(ctx, parent.ID, title)
			if err != nil {
				res, _ = toolError(err)
				return nil
			}
			out = r
		}
		t.ws.log.Info("mcp: node added", zap.String("node", out.Added.Number))
		var err error
		res, err = jsonResult(map[string]any{"added": out.Added, "at": describe(p, out.Added.ID)})
		return err
	})
	return res, err
}

// DeleteTool handles outline_delete.
type DeleteTool struct{ ws *Workspace }

func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("outline_delete",
		mcp.WithDescription(
			"Delete a node and all of its descendants. Contents of removed nodes stay in the store. "+
				"Requires confirm=true; without it nothing is deleted.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path (\"1.2\") or qualified number of the node to delete."),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Must be true to delete."),
		),
	)
}

func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	confirm := req.GetBool("confirm", false)
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		n, err := p.Resolve(path)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		t.ws.gate.ok = confirm
		out, err := p.Run(ctx, dispatch.CmdDelete, n.ID)
		t.ws.gate.ok = false
		if errors.Is(err, dispatch.ErrCancelled) {
			res = mcp.NewToolResultError(fmt.Sprintf("not deleted: pass confirm=true to delete %s %s and its descendants", n.Number, n.Title))
			return nil
		}
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		res, err = jsonResult(map[string]any{"removed": out.Removed, "renumbered": out.Renumbered})
		return err
	})
	return res, err
}

// SettingsTool handles outline_settings.
type SettingsTool struct{ ws *Workspace }

func (t *SettingsTool) Definition() mcp.Tool {
	return mcp.NewTool("outline_settings",
		mcp.WithDescription("Show the settings of one node: kind, number, qualified number, title, path, state and child count."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path (\"1.2\") or qualified number."),
		),
	)
}

func (t *SettingsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		n, err := p.Resolve(path)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		out, err := p.Run(ctx, dispatch.CmdOpenSettings, n.ID)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		res, err = jsonResult(out.Settings)
		return err
	})
	return res, err
}

// RenameTool handles outline_rename.
type RenameTool struct{ ws *Workspace }

func (t *RenameTool) Definition() mcp.Tool {
	return mcp.NewTool("outline_rename",
		mcp.WithDescription("Change the title (content summary) of a node. Its number and contents are kept."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path (\"1.2\") or qualified number.")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title.")),
	)
}

func (t *RenameTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	title := req.GetString("title", "")
	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		n, err := p.Resolve(path)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		n, err = p.Rename(ctx, n.ID, title)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		res, err = jsonResult(n)
		return err
	})
	return res, err
}

// ReadTool handles content_read.
type ReadTool struct{ ws *Workspace }

func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool("content_read",
		mcp.WithDescription(
			"Read a node's content: the final version if saved, else the draft, else a placeholder. "+
				"Returns the state and the stored HTML.",
		),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path (\"1.2\") or qualified number.")),
	)
}

func (t *ReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		n, err := p.Resolve(path)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		body, err := p.Content().CurrentContent(ctx, n.ID)
		if err != nil {
			return err
		}
		st, err := p.Content().Load(ctx, n.ID)
		if err != nil {
			return err
		}
		res, err = jsonResult(map[string]any{
			"number":  n.Number,
			"title":   n.Title,
			"state":   st.State(),
			"content": body,
		})
		return err
	})
	return res, err
}

// WriteTool handles content_write.
type WriteTool struct{ ws *Workspace }

func (t *WriteTool) Definition() mcp.Tool {
	return mcp.NewTool("content_write",
		mcp.WithDescription(
			"Save HTML content for a node. draft=true saves a draft and leaves any final version in place; "+
				"otherwise the content becomes the final version.",
		),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path (\"1.2\") or qualified number.")),
		mcp.WithString("content", mcp.Required(), mcp.Description("HTML content, e.g. <p>text</p>.")),
		mcp.WithBoolean("draft", mcp.Description("Save as draft instead of final.")),
	)
}

func (t *WriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	body := req.GetString("content", "")
	draft := req.GetBool("draft", false)
	if strings.TrimSpace(body) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	var res *mcp.CallToolResult
	err := t.ws.with(func(p *page.Page) error {
		n, err := p.Resolve(path)
		if err != nil {
			res, _ = toolError(err)
			return nil
		}
		n, err = p.Content().Save(ctx, n.ID, body, draft)
		if err != nil {
			return err
		}
		res, err = jsonResult(map[string]any{"number": n.Number, "state": n.State, "preview": n.Preview})
		return err
	})
	return res, err
}
