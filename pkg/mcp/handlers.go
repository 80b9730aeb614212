package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/tsdocgen/pkg/docgen"
	"github.com/gnana997/tsdocgen/pkg/loader"
)

func (s *Server) handleTransformFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.requirePath(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := objectArgument(req, "options")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
	}

	out, err := s.loader.Sync(&loader.Resource{Path: path, Opts: s.resolveOptions(raw)}, string(source))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleParseComponents(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.requirePath(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	compilerOptions, err := objectArgument(req, "compilerOptions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw := map[string]any{}
	if tsconfig := req.GetString("tsconfigPath", ""); tsconfig != "" {
		raw["tsconfigPath"] = s.resolve(tsconfig)
	}
	if compilerOptions != nil {
		raw["compilerOptions"] = compilerOptions
	}

	docs, err := s.loader.Document(path, raw, req.GetBool("enumValues", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if docs == nil {
		docs = []docgen.ComponentDoc{}
	}
	return jsonResult(docs)
}

func (s *Server) handleOptionsSchema(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := loader.Schema()
	if err != nil {
		return nil, fmt.Errorf("options schema: %w", err)
	}
	return mcp.NewToolResultText(string(schema)), nil
}

func (s *Server) requirePath(req mcp.CallToolRequest) (string, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	return s.resolve(path), nil
}

// resolve anchors relative paths at the loader's working directory.
func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.loader.WorkDir(), path)
}

// resolveOptions returns raw with a relative tsconfigPath anchored the way
// parse_components anchors it. Other values are left for validation.
func (s *Server) resolveOptions(raw map[string]any) map[string]any {
	tsconfig, ok := raw["tsconfigPath"].(string)
	if !ok || tsconfig == "" {
		return raw
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	out["tsconfigPath"] = s.resolve(tsconfig)
	return out
}

func objectArgument(req mcp.CallToolRequest, key string) (map[string]any, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object, got %T", key, v)
	}
	return obj, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
