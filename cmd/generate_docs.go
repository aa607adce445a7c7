package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/scheduling"
	"github.com/teemow/meetwise/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the reference always matches the tool definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// listAllTools registers every tool, write tools included, against a client
// that is never called and returns their definitions.
func listAllTools() ([]mcp.Tool, error) {
	client := calendar.NewClientWithService(nil)
	scheduler, err := scheduling.NewService(client, scheduling.Options{})
	if err != nil {
		return nil, err
	}
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Calendar:  client,
		Scheduler: scheduler,
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("meetwise", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return nil, err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return tools, nil
}

func runGenerateDocs(stdout io.Writer, outputFile string) error {
	tools, err := listAllTools()
	if err != nil {
		return err
	}
	markdown := generateToolsMarkdown(tools)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
		return nil
	}
	_, err = io.WriteString(stdout, markdown)
	return err
}

// Tool categories in the order they are documented.
const (
	categoryCalendar = "Calendar Tools"
	categoryAccount  = "Account Tools"
	categoryOther    = "Other"
)

var categoryOrder = []string{categoryCalendar, categoryAccount, categoryOther}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists every tool available when running meetwise as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is generated from the tool definitions by `meetwise generate-docs`.\n\n")

	byCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categoryOrder {
		if len(byCategory[category]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Calendar Owners\n\n")
	sb.WriteString("Tools that act on a calendar take a `user_email` argument naming its owner. ")
	sb.WriteString("The owner must have shared their primary calendar with the service account first; ")
	sb.WriteString("otherwise the tool replies with the onboarding link.\n\n")

	for _, category := range categoryOrder {
		categoryTools := byCategory[category]
		if len(categoryTools) == 0 {
			continue
		}
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "calendar":
		return categoryCalendar
	case "validate":
		return categoryAccount
	default:
		return categoryOther
	}
}

// generateToolMarkdown renders one tool as a heading, its description and an
// argument table with required arguments first.
func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri := slices.Contains(tool.InputSchema.Required, names[i])
		rj := slices.Contains(tool.InputSchema.Required, names[j])
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		desc, _ := prop["description"].(string)
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, getPropertyType(prop), required,
			strings.ReplaceAll(desc, "|", "\\|"))
	}
	sb.WriteString("\n")

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
