package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dataDir    string
	serverURL  string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "takes",
		Short: "Post match takes offline and sync them when a connection is available",
		Long: `takes - the 12thMan client.

Takes are saved locally first and pushed to the server by "takes sync" or "takes watch".
A take that fails to sync is retried with exponential backoff.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (env: TM_CONFIG)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "local data directory (overrides client.data_dir)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "API base URL (overrides client.server_url)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "text|json")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr as well as the log file")

	root.AddGroup(
		&cobra.Group{ID: "takes", Title: "Take Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "remote", Title: "Server Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	root.SetHelpCommandGroupID("system")
	root.SetCompletionCommandGroupID("system")

	root.AddCommand(
		newPostCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newReactCmd(opts),
		newDeleteCmd(opts),
		newRetryCmd(opts),

		newSyncCmd(opts),
		newRetryFailedCmd(opts),
		newLogCmd(opts),
		newFaultCmd(opts),
		newWatchCmd(opts),

		newRegisterCmd(opts),
		newProfileCmd(opts),
		newFeedCmd(opts),
		newTailCmd(opts),
		newRatingsCmd(opts),

		newResetCmd(opts),
	)
	return root
}
