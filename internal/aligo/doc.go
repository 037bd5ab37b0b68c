// Package aligo provides a client for sending SMS, LMS and MMS messages through
// the Aligo SMS gateway (https://smartsms.aligo.in).
//
// A send runs through four stages, each usable on its own:
//   - Normalize validates a MessageRequest and maps it onto the gateway's form fields
//   - Encode turns the normalized fields into a URL-encoded or multipart body
//   - Client.Send performs the POST against /send/ with a bounded timeout
//   - ToOutcome maps the gateway response, or any failure, onto an Outcome
//
// Send never returns an error. Every failure is classified into a FailureKind and
// reported through the Outcome so the MCP layer can render it without special cases.
//
// Example usage:
//
//	client := aligo.NewClient(aligo.Config{
//	    Credentials: aligo.Credentials{APIKey: key, UserID: "myaccount", TestMode: true},
//	})
//
//	outcome := client.Send(ctx, aligo.MessageRequest{
//	    Sender:   "01000000000",
//	    Receiver: "01011112222",
//	    Body:     "hello",
//	})
//	fmt.Println(outcome.SummaryText)
package aligo
