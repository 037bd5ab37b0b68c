package sms_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
	"github.com/hongsw/aligo-sms-mcp-server/internal/tools/common"
)

// requestFromArgs maps tool arguments onto a gateway request. Validation
// is left to the client so every failure yields the same outcome shape.
// receiver may be a comma-separated string or an array of numbers.
func requestFromArgs(args map[string]interface{}) (aligo.MessageRequest, error) {
	receiver, err := common.ListArg(args, "receiver")
	if err != nil {
		return aligo.MessageRequest{}, err
	}

	return aligo.MessageRequest{
		Sender:          common.StringArg(args, "sender"),
		Receiver:        receiver,
		Body:            stringArgRaw(args, "message"),
		Kind:            aligo.MessageKind(common.StringArg(args, "msg_type")),
		Title:           common.StringArg(args, "title"),
		ScheduleDate:    common.StringArg(args, "schedule_date"),
		ScheduleTime:    common.StringArg(args, "schedule_time"),
		DestinationList: common.StringArg(args, "destination"),
		AttachmentPath:  common.StringArg(args, "image_path"),
	}, nil
}

// stringArgRaw keeps surrounding whitespace, which is part of a message body.
func stringArgRaw(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// handleSendSMS handles the send-sms tool
func handleSendSMS(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	req, err := requestFromArgs(request.GetArguments())
	if err != nil {
		// Same envelope as any other rejected request.
		outcome := aligo.ToOutcome(nil, &aligo.DispatchError{Kind: aligo.ValidationError, Op: "arguments", Err: err})
		common.SetErrorKind(ctx, string(outcome.ErrorKind))
		return outcomeResult(outcome), nil
	}

	outcome := sc.SMSClient().Send(ctx, req)
	common.SetErrorKind(ctx, string(outcome.ErrorKind))
	return outcomeResult(outcome), nil
}

// outcomeResult renders an outcome as a summary line followed by the JSON
// envelope.
func outcomeResult(o *aligo.Outcome) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(o.SummaryText),
			mcp.NewTextContent(o.JSON()),
		},
		IsError: !o.Success,
	}
}
