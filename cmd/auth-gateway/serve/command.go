package serve

import (
	"github.com/spf13/cobra"

	"github.com/mkmemoportal/auth-gateway/internal/business"
	"github.com/mkmemoportal/auth-gateway/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"serve",
		"Auth Gateway HTTP server",
		"Runs the gateway as an HTTP server that authenticates requests and proxies them to the configured origin.",
		buildInfo,
		cmdutils.RunAsService,
		business.Main,
	)
}
