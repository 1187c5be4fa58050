package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/docindex/internal/config"
	"github.com/a3tai/docindex/internal/descriptions"
	"github.com/a3tai/docindex/internal/pattern"
	"github.com/a3tai/docindex/internal/pdf"
	"github.com/a3tai/docindex/internal/pdf/pagerange"
	"github.com/a3tai/docindex/internal/pdf/security"
	"github.com/a3tai/docindex/internal/transform"
)

// Server exposes the index tools over the Model Context Protocol
type Server struct {
	config    *config.Config
	logger    *slog.Logger
	paths     *security.PathValidator
	pdfReader *pdf.Reader
	catalog   *pdf.Catalog
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	paths, err := security.NewPathValidator(cfg.DocumentDirectory, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		logger:    logger,
		paths:     paths,
		pdfReader: pdf.NewReader(cfg.MaxFileSize),
		catalog:   pdf.NewCatalog(paths.Root(), pdf.DefaultCatalogOptions()),
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.GenerateRegex,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.GenerateRegex)),
		mcp.WithString("sample",
			mcp.Required(),
			mcp.Description("Sample entry: <term><symbol><original><symbol>"),
		),
	), s.handleGenerateRegex)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ReformatName,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ReformatName)),
		mcp.WithString("line",
			mcp.Required(),
			mcp.Description("Line starting with '*'"),
		),
	), s.handleReformatName)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ExtractKorean,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ExtractKorean)),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to extract from"),
		),
	), s.handleExtractKorean)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ExtractIndex,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ExtractIndex)),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to search"),
		),
		mcp.WithString("regex",
			mcp.Required(),
			mcp.Description("Regular expression, usually from generate_regex"),
		),
		mcp.WithString("decorator",
			mcp.Description("Up to two characters wrapped around the original term, e.g. () or +"),
		),
	), s.handleExtractIndex)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.LocateTerms,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.LocateTerms)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file, relative to the document directory or absolute inside it"),
		),
		mcp.WithString("terms",
			mcp.Required(),
			mcp.Description("Terms to find, one per line or comma separated"),
		),
		mcp.WithString("page_range",
			mcp.Description("Optional inclusive page range such as 3-120"),
		),
	), s.handleLocateTerms)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ListDocuments,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ListDocuments)),
		mcp.WithBoolean("refresh",
			mcp.Description("Rescan the directory instead of using the cached listing"),
		),
	), s.handleListDocuments)
}

func (s *Server) handleGenerateRegex(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sample, err := request.RequireString("sample")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	regex, err := pattern.Derive(sample)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(regex), nil
}

func (s *Server) handleReformatName(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reformatted, ok := transform.ReformatName(strings.TrimSpace(line))
	if !ok {
		return mcp.NewToolResultError("line is not a '*<Korean name> <Latin name>' name line"), nil
	}
	return mcp.NewToolResultText(reformatted), nil
}

func (s *Server) handleExtractKorean(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(transform.ExtractKorean(text)), nil
}

func (s *Server) handleExtractIndex(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	regex, err := request.RequireString("regex")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	decorator := ""
	if d, ok := request.GetArguments()["decorator"].(string); ok {
		decorator = d
	}

	entries, err := transform.ExtractIndex(text, regex, decorator)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(entries, "\n")), nil
}

func (s *Server) handleLocateTerms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawTerms, err := request.RequireString("terms")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rangeText := ""
	if r, ok := request.GetArguments()["page_range"].(string); ok {
		rangeText = r
	}

	terms := splitTerms(rawTerms)
	if len(terms) == 0 {
		return mcp.NewToolResultError("no search terms given"), nil
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if info.Size() > s.config.MaxFileSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max: %d bytes)",
			info.Size(), s.config.MaxFileSize)), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read file: %v", err)), nil
	}

	doc, err := s.pdfReader.Open(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rng, err := pagerange.Resolve(rangeText, doc.NumPages(), s.config.StrictPageRange)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found, err := pdf.Locate(ctx, terms, doc, rng, pdf.WithUnicodeComposition(s.config.ComposeUnicode))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("text extraction failed: %v", err)), nil
	}

	s.logger.Debug("located terms", "path", resolved, "terms", len(terms), "range", rng.String())
	return mcp.NewToolResultText(formatLocations(resolved, doc.NumPages(), rng, terms, found)), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if refresh, ok := request.GetArguments()["refresh"].(bool); ok && refresh {
		s.catalog.Invalidate()
	}

	listing, err := s.catalog.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n", s.paths.Root())
	fmt.Fprintf(&b, "PDF files: %d", len(listing.Files))
	if listing.Truncated {
		b.WriteString(" (truncated)")
	}
	b.WriteString("\n\n")
	for _, f := range listing.Files {
		rel, err := filepath.Rel(s.paths.Root(), f.Path)
		if err != nil {
			rel = f.Path
		}
		fmt.Fprintf(&b, "%s (%d bytes, modified %s)\n", rel, f.Size, f.Modified.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// splitTerms accepts newline or comma separated terms, dropping blanks and
// repeats
func splitTerms(raw string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' }) {
		term := strings.TrimSpace(field)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

func formatLocations(path string, pages int, rng pagerange.PageRange, terms []string, found pdf.Locations) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PDF: %s\n", path)
	fmt.Fprintf(&b, "Pages: %d (searched: %s)\n\n", pages, rng)
	for _, term := range terms {
		if !found.Found(term) {
			fmt.Fprintf(&b, "%s: not found\n", term)
			continue
		}
		pageList := found.Pages(term)
		numbers := make([]string, len(pageList))
		for i, p := range pageList {
			numbers[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(&b, "%s: %s\n", term, strings.Join(numbers, ", "))
	}
	return b.String()
}

// Run serves the tools over standard I/O until ctx is cancelled or stdin
// is closed
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves the tools over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server on stdio",
		"server", s.config.ServerName,
		"document_directory", s.paths.Root(),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
