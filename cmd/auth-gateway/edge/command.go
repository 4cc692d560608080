package edge

import (
	"github.com/spf13/cobra"

	"github.com/mkmemoportal/auth-gateway/internal/business"
	"github.com/mkmemoportal/auth-gateway/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"edge",
		"Auth Gateway edge function",
		"Runs the gateway as a viewer-request function attached to the CDN distribution.",
		buildInfo,
		cmdutils.RunAsFunction,
		business.LambdaMain,
	)
}
