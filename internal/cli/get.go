package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/riposte/http"
)

var getCmd = &cobra.Command{
	Use:   "get URL",
	Short: "Make a GET request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd, http.MethodGet, args[0], false)
	},
}

func init() {
	addRequestFlags(getCmd, false)
}
