// Package email_tools registers the send-email MCP tool, which relays a
// short message to an email address through the garak relay.
package email_tools
