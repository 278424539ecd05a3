package cmd

import (
	"echofm/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the echofm HTTP server",
	Long:  `Start the echofm HTTP server, serving the streaming API and recording play history.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
