package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	toolTransformFile   = "transform_file"
	toolParseComponents = "parse_components"
	toolOptionsSchema   = "options_schema"
)

func transformFileTool() mcp.Tool {
	return mcp.NewTool(toolTransformFile,
		mcp.WithDescription("Run the docgen loader over a source file and return the amended text. "+
			"Files outside the include/exclude selection or without components come back unchanged."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the .tsx file, absolute or relative to the server's working directory"),
		),
		mcp.WithObject("options",
			mcp.Description("Loader options, as accepted by the build pipeline. See options_schema."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func parseComponentsTool() mcp.Tool {
	return mcp.NewTool(toolParseComponents,
		mcp.WithDescription("Return the component documentation records of a file as JSON: "+
			"display names, descriptions and props with types, defaults and requiredness."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the TypeScript or JavaScript file"),
		),
		mcp.WithString("tsconfigPath",
			mcp.Description("tsconfig.json used to resolve imports. Wins over compilerOptions."),
		),
		mcp.WithObject("compilerOptions",
			mcp.Description("Inline compiler options (baseUrl, paths, allowJs)"),
		),
		mcp.WithBoolean("enumValues",
			mcp.Description("Expand string literal unions into enum values"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func optionsSchemaTool() mcp.Tool {
	return mcp.NewTool(toolOptionsSchema,
		mcp.WithDescription("Return the JSON schema of the loader options"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// RegisteredTools returns the tools the server exposes, in registration order.
func RegisteredTools() []mcp.Tool {
	return []mcp.Tool{
		transformFileTool(),
		parseComponentsTool(),
		optionsSchemaTool(),
	}
}
