package email_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
	"github.com/hongsw/aligo-sms-mcp-server/internal/tools/common"
)

// ToolSendEmail is the name of the email tool.
const ToolSendEmail = "send-email"

// RegisterEmailTools registers the email tools with the MCP server.
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	sendEmailTool := mcp.NewTool(ToolSendEmail,
		mcp.WithDescription("Send a short message to an email address"),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Message body, at most %d characters", relay.MaxBodyLength)),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSendEmail(ctx, request, sc)
	}
	if readOnly {
		handler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("Cannot send email in read-only mode. Restart the server without --read-only to enable sending."), nil
		}
	}

	s.AddTool(sendEmailTool, common.InstrumentedToolHandler(ToolSendEmail, instrumentation.ProviderRelay, sc, handler))
	return nil
}

// handleSendEmail handles the send-email tool
func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client := sc.EmailClient()
	if client == nil || !client.Configured() {
		return mcp.NewToolResultError(relay.ErrMissingAPIKey.Error()), nil
	}

	args := request.GetArguments()
	email, err := common.RequiredStringArg(args, "email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, _ := args["body"].(string)
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	resp, err := client.Send(ctx, email, body)
	if err != nil {
		var relayErr *relay.RelayError
		if errors.As(err, &relayErr) {
			common.SetErrorKind(ctx, "RelayError")
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	msg := "Email sent successfully"
	if resp.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, resp.Message)
	}
	return mcp.NewToolResultText(msg), nil
}
