package sms_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
	"github.com/hongsw/aligo-sms-mcp-server/internal/tools/common"
)

// ToolSendSMS is the name of the SMS tool.
const ToolSendSMS = "send-sms"

const readOnlyMessage = "Cannot send messages in read-only mode. Restart the server without --read-only to enable sending."

// RegisterSMSTools registers the SMS tools with the MCP server.
func RegisterSMSTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	sendSMSTool := mcp.NewTool(ToolSendSMS,
		mcp.WithDescription("Send SMS, LMS or MMS messages through the Aligo API"),
		mcp.WithString("sender",
			mcp.Required(),
			mcp.Description("Sender's phone number (registered with Aligo), at most 16 characters"),
		),
		mcp.WithString("receiver",
			mcp.Required(),
			mcp.Description("Recipient's phone number, or a comma-separated list (an array of numbers is also accepted)"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message content, at most 2000 characters"),
		),
		mcp.WithString("msg_type",
			mcp.Description("Message type (default: SMS)"),
			mcp.Enum(string(aligo.KindSMS), string(aligo.KindLMS), string(aligo.KindMMS)),
		),
		mcp.WithString("title",
			mcp.Description("Message title, at most 44 characters (required for LMS/MMS)"),
		),
		mcp.WithString("schedule_date",
			mcp.Description("Optional schedule date (YYYYMMDD)"),
		),
		mcp.WithString("schedule_time",
			mcp.Description("Optional schedule time (HHMM)"),
		),
		mcp.WithString("destination",
			mcp.Description("Optional formatted destination with names (01011112222|홍길동,01033334444|아무개)"),
		),
		mcp.WithString("image_path",
			mcp.Description("Attachment file path for MMS (JPEG, PNG, GIF, BMP, PDF, DOC or DOCX)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSendSMS(ctx, request, sc)
	}
	if readOnly {
		handler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError(readOnlyMessage), nil
		}
	}

	s.AddTool(sendSMSTool, common.InstrumentedToolHandler(ToolSendSMS, instrumentation.ProviderAligo, sc, handler))
	return nil
}
