package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference of the MCP tools.

The reference is built from the registered tool definitions, so it always
matches what a client sees in tools/list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(stdout io.Writer, outputFile string) error {
	markdown, err := toolsReference()
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := io.WriteString(stdout, markdown)
		return err
	}

	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// toolsReference registers every tool against a throwaway server context
// and renders the reference. No credentials are needed.
func toolsReference() (string, error) {
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		SMS:   aligo.NewClient(aligo.Config{}),
		Email: relay.NewClient("", ""),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return "", err
	}

	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return generateToolsMarkdown(tools)
}

var referenceTemplate = template.Must(template.New("reference").Parse(`# MCP Tools Reference

Tools available when running aligo-sms-mcp as an MCP server.

**Note:** This document is generated from the tool definitions with ` + "`aligo-sms-mcp generate-docs`" + `.

## Table of Contents

{{range .}}- [{{.Name}}](#{{.Anchor}})
{{end}}
## Configuration

- ` + "`send-sms`" + ` needs ` + "`ALIGO_API_KEY`" + ` and ` + "`ALIGO_USER_ID`" + `; set ` + "`ALIGO_TEST_MODE=Y`" + ` to have the gateway simulate sends
- ` + "`send-email`" + ` needs ` + "`GARAK_API_KEY`" + ` (create one with ` + "`npx hi-garak`" + `)
- With ` + "`--read-only`" + ` both tools are listed but refuse to send
{{range .}}
## {{.Name}}

{{range .Tools}}{{.}}
{{end}}{{end}}`))

type toolCategory struct {
	Name   string
	Anchor string
	Tools  []string
}

func generateToolsMarkdown(tools []mcp.Tool) (string, error) {
	slices.SortFunc(tools, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })

	byName := make(map[string]*toolCategory)
	for _, tool := range tools {
		name := getCategoryFromToolName(tool.Name)
		c, ok := byName[name]
		if !ok {
			c = &toolCategory{Name: name, Anchor: strings.ToLower(strings.ReplaceAll(name, " ", "-"))}
			byName[name] = c
		}
		c.Tools = append(c.Tools, generateToolMarkdown(tool))
	}

	categories := make([]*toolCategory, 0, len(byName))
	for _, c := range byName {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b *toolCategory) int { return strings.Compare(a.Name, b.Name) })

	var sb strings.Builder
	if err := referenceTemplate.Execute(&sb, categories); err != nil {
		return "", fmt.Errorf("failed to render tools reference: %w", err)
	}
	return sb.String(), nil
}

// getCategoryFromToolName groups tools by the channel named after their last dash.
func getCategoryFromToolName(name string) string {
	i := strings.LastIndex(name, "-")
	if i < 0 {
		return "Other"
	}

	switch name[i+1:] {
	case "sms":
		return "SMS Tools"
	case "email":
		return "Email Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return sb.String()
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	sb.WriteString("**Arguments:**\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		requirement := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requirement = "required"
		}

		desc, _ := prop["description"].(string)
		if desc == "" {
			desc = propertyType(prop) + " parameter"
		}
		if values := enumValues(prop); len(values) > 0 {
			desc += " One of: `" + strings.Join(values, "`, `") + "`."
		}

		fmt.Fprintf(&sb, "- `%s` (%s): %s\n", name, requirement, desc)
	}
	sb.WriteString("\n")

	return sb.String()
}

func propertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func enumValues(prop map[string]any) []string {
	switch v := prop["enum"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
