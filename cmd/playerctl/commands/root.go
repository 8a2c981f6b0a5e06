package commands

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "playerctl",
	Short: "Drive the playback engine from the command line",
	Long: `playerctl opens one playback Session against the local decoder
registry and output device, then runs a subcommand against it.

"play" runs a track (optionally gapless into a second) to completion
while accepting interactive control keys on stdin: s stop, p pause,
u unpause, > seek +10s, < seek -10s, q quit.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default: per-user config dir)")
	rootCmd.AddCommand(playCmd)
}
