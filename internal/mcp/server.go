package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wsekete/vpars3/internal/config"
	"github.com/wsekete/vpars3/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register field analysis tool
	pdfAnalyzeFieldsTool := mcp.NewTool(
		"pdf_analyze_fields",
		mcp.WithDescription("Detect and classify the form fields in a PDF file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfAnalyzeFieldsTool, s.handlePDFAnalyzeFields)

	// Register field rename tool
	pdfRenameFieldsTool := mcp.NewTool(
		"pdf_rename_fields",
		mcp.WithDescription("Rename form fields in a PDF file using an old-name to new-name mapping"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithObject("mapping",
			mcp.Required(),
			mcp.Description("Object mapping current field names to new names"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to write the modified PDF (derived from the source path if empty)"),
		),
		mcp.WithBoolean("validate_mappings",
			mcp.Description("Validate the whole mapping before mutating anything (default true)"),
		),
		mcp.WithBoolean("preserve_original",
			mcp.Description("Write a modified copy instead of renaming in place (default from server config)"),
		),
		mcp.WithBoolean("create_backup",
			mcp.Description("Keep a timestamped backup before an in-place rename (default from server config)"),
		),
	)
	s.mcpServer.AddTool(pdfRenameFieldsTool, s.handlePDFRenameFields)

	// Register name validation tool
	pdfValidateNamesTool := mcp.NewTool(
		"pdf_validate_names",
		mcp.WithDescription("Check candidate field names against the naming convention"),
		mcp.WithArray("names",
			mcp.Required(),
			mcp.Description("Candidate field names to validate"),
		),
	)
	s.mcpServer.AddTool(pdfValidateNamesTool, s.handlePDFValidateNames)

	// Register PDF validate file tool
	pdfValidateFileTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription("Validate if a file is a readable PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pdfValidateFileTool, s.handlePDFValidateFile)

	// Register PDF server info tool
	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription("Get server information, available tools and usage guidance"),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFAnalyzeFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFAnalyzeFieldsRequest{Path: path}
	result, err := s.pdfService.PDFAnalyzeFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatPDFAnalyzeFieldsResult(result)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFRenameFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	rawMapping, ok := args["mapping"].(map[string]interface{})
	if !ok || len(rawMapping) == 0 {
		return mcp.NewToolResultError("mapping must be a non-empty object of old to new field names"), nil
	}
	mapping := make(map[string]string, len(rawMapping))
	for old, value := range rawMapping {
		newName, isString := value.(string)
		if !isString {
			return mcp.NewToolResultError(fmt.Sprintf("mapping value for %q must be a string", old)), nil
		}
		mapping[old] = newName
	}

	req := pdf.PDFRenameFieldsRequest{
		Path:             path,
		Mapping:          mapping,
		ValidateMappings: boolArg(args, "validate_mappings", true),
		PreserveOriginal: boolArg(args, "preserve_original", s.config.PreserveOriginal),
		CreateBackup:     boolArg(args, "create_backup", s.config.CreateBackup),
	}
	if output, ok := args["output_path"].(string); ok {
		req.OutputPath = output
	}

	result, err := s.pdfService.PDFRenameFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatPDFRenameFieldsResult(result)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFValidateNames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rawNames, ok := args["names"].([]interface{})
	if !ok || len(rawNames) == 0 {
		return mcp.NewToolResultError("names must be a non-empty list of strings"), nil
	}
	names := make([]string, 0, len(rawNames))
	for _, value := range rawNames {
		name, isString := value.(string)
		if !isString {
			return mcp.NewToolResultError("names must contain only strings"), nil
		}
		names = append(names, name)
	}

	result, err := s.pdfService.PDFValidateNames(pdf.PDFValidateNamesRequest{Names: names})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var text strings.Builder
	if result.AllValid {
		text.WriteString(fmt.Sprintf("All %d name(s) are valid\n", len(result.Results)))
	} else {
		text.WriteString("Some names are invalid\n")
	}
	for _, verdict := range result.Results {
		if verdict.Valid {
			text.WriteString(fmt.Sprintf("  ok    %s\n", verdict.Name))
		} else {
			text.WriteString(fmt.Sprintf("  FAIL  %s: %s\n", verdict.Name, verdict.Error))
		}
	}
	return mcp.NewToolResultText(text.String()), nil
}

func (s *Server) handlePDFValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.PDFValidateFileRequest{Path: path}
	result, err := s.pdfService.PDFValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pdf.PDFServerInfoRequest{}
	result, err := s.pdfService.PDFServerInfo(req, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatPDFServerInfoResult(result)
	return mcp.NewToolResultText(responseText), nil
}

func boolArg(args map[string]interface{}, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}

// Formatting methods
func (s *Server) formatPDFAnalyzeFieldsResult(result *pdf.PDFAnalyzeFieldsResult) string {
	text := fmt.Sprintf("Form field analysis for: %s\n", result.Path)
	text += fmt.Sprintf("Fields found: %d (%d accessible for renaming)\n", result.FieldCount, result.AccessibleCount)
	text += fmt.Sprintf("Primary strategy: %s\n", result.PrimaryStrategy)

	if result.FieldCount > 0 {
		text += "\nFields:\n"
		for i, field := range result.Fields {
			text += fmt.Sprintf("%d. %s\n", i+1, field.Name)
			text += fmt.Sprintf("   Type: %s\n", field.Type)
			if field.Prefix != "" {
				text += fmt.Sprintf("   Normalized: %s (prefix %s)\n", field.NormalizedName, field.Prefix)
			}
			text += fmt.Sprintf("   Accessible: %t\n", field.Accessible)
			text += fmt.Sprintf("   Detected by: %s\n", strings.Join(field.Sources, ", "))
			if field.GroupID != "" {
				text += fmt.Sprintf("   Group: %s\n", field.GroupID)
			}
		}
	}

	if len(result.Groups) > 0 {
		text += "\nInferred radio groups:\n"
		for _, group := range result.Groups {
			text += fmt.Sprintf("• %s (%s): %s\n",
				group.GroupName, strings.Join(group.InferenceSources, ", "), strings.Join(group.Members, ", "))
		}
	}

	for _, warning := range result.Warnings {
		text += fmt.Sprintf("\nWarning: %s", warning)
	}
	for _, errText := range result.Errors {
		text += fmt.Sprintf("\nError: %s", errText)
	}

	return text
}

func (s *Server) formatPDFRenameFieldsResult(result *pdf.PDFRenameFieldsResult) string {
	var text string
	if result.Success {
		text = fmt.Sprintf("Renamed %d field(s) successfully\n", len(result.Modifications))
	} else {
		text = fmt.Sprintf("Rename completed with %d error(s); %d field(s) renamed\n",
			len(result.Errors), len(result.Modifications))
	}
	text += fmt.Sprintf("Source: %s\n", result.OriginalRef)
	text += fmt.Sprintf("Output: %s\n", result.ModifiedRef)
	text += fmt.Sprintf("Field count: %d before, %d after\n", result.FieldCountBefore, result.FieldCountAfter)

	if len(result.Modifications) > 0 {
		text += "\nModifications:\n"
		for i, mod := range result.Modifications {
			text += fmt.Sprintf("%d. %s -> %s (%s, %d properties preserved)\n",
				i+1, mod.Old, mod.New, mod.Type, mod.PreservedPropertyCount)
		}
	}

	if len(result.Errors) > 0 {
		text += "\nErrors:\n"
		for _, errText := range result.Errors {
			text += fmt.Sprintf("  • %s\n", errText)
		}
	}
	if len(result.Warnings) > 0 {
		text += "\nWarnings:\n"
		for _, warning := range result.Warnings {
			text += fmt.Sprintf("  • %s\n", warning)
		}
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	} else {
		return s.runStdioMode(ctx)
	}
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF field rename server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
