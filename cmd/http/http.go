package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the commands that run the REST API.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the medicenter REST API",
		Long: "Serve the centers, sessions, patients, appointments and prescriptions API " +
			"together with the notification worker and the session sweeper.",
	}
	cmd.AddCommand(NewStartCommand())
	return cmd
}
