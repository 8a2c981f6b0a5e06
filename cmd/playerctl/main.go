// playerctl is a command-line harness for the playback engine: it opens
// one Session against the local decoder registry and output device, runs
// a track through "play", and prints emitted events to stdout as they
// arrive. Playback is driven interactively via single-key commands on
// stdin once a track starts.
package main

import (
	"os"

	"github.com/rillplay/engine/cmd/playerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
