// Package sms_tools registers the send-sms MCP tool, which dispatches a
// message through the Aligo gateway and reports the outcome as a summary
// line followed by a JSON envelope.
package sms_tools
