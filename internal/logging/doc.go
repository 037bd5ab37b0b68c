// Package logging sets up the process logger and the shared attribute
// helpers.
//
// Code logs through log/slog. New returns a slog.Logger rendered by a
// charmbracelet/log handler, as text for terminals or as JSON lines. Output
// goes to stderr because stdout carries the stdio MCP transport:
//
//	logger := logging.New(logging.Options{Debug: debug})
//	slog.SetDefault(logger)
//
// Attribute helpers keep key names uniform across packages:
//
//	logger := logging.WithOperation(slog.Default(), "aligo.send")
//	logger.Info("message dispatched",
//	    logging.Receiver(receiver),
//	    logging.Status(logging.StatusSuccess))
//
// Receiver numbers are masked to their last four digits, email addresses
// are replaced by a short hash and API keys are only ever logged by length.
package logging
