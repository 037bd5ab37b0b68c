package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set by main through SetVersion.
var version = "dev"

// SetVersion records the build version reported by --version and the version command.
func SetVersion(v string) {
	version = v
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aligo-sms-mcp",
		Short: "MCP server for sending SMS through the Aligo gateway",
		Long: `aligo-sms-mcp exposes the Aligo SMS gateway to AI assistants as MCP tools.

Tools:
  - send-sms:   send SMS, LMS or MMS messages
  - send-email: relay a short email through the garak relay

Credentials are read from ~/.garakrc and the environment
(ALIGO_API_KEY, ALIGO_USER_ID, ALIGO_TEST_MODE, GARAK_API_KEY).`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "aligo-sms-mcp version %s\n" .Version}}`)

	root.AddCommand(newServeCmd(), newVersionCmd(), newGenerateDocsCmd())
	return root
}

// Execute runs the CLI and exits non-zero on failure. Without arguments it
// serves over stdio, which is how MCP clients launch the binary.
func Execute() {
	root := newRootCmd()
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
