package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rillplay/engine/pkg/events"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <file> [next-file]",
	Short: "Play a local file or URL, optionally gapless into a second track",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	sink := events.NewChanSink(64)
	sess := newSession(reg, sink)

	file := args[0]
	nextFile := ""
	if len(args) == 2 {
		nextFile = args[1]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Play(ctx, file, nextFile)
		close(done)
	}()

	go printEvents(sink)
	go readControlKeys(sess, done)

	<-done
	return nil
}

func printEvents(sink *events.ChanSink) {
	for e := range sink.Events() {
		switch e.Kind {
		case events.AudioFail:
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Kind, e.Path)
		case events.PlaylistTimeUpdated:
			fmt.Printf("%s: %s duration=%.1fs\n", e.Kind, e.Path, e.Seconds)
		case events.ChannelsChanged:
			fmt.Printf("%s: channels=%d\n", e.Kind, e.Channels)
		case events.RateChanged:
			fmt.Printf("%s: rate=%d\n", e.Kind, e.Rate)
		default:
			fmt.Printf("%s: %s\n", e.Kind, e.Path)
		}
	}
}

// readControlKeys reads single-character commands from stdin and drives
// sess the way an interactive front end would, until playback finishes
// or a quit command is entered.
func readControlKeys(sess sessionController, playDone <-chan struct{}) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	quit := make(chan struct{})
	go dispatchControlLines(sess, lines, quit)

	select {
	case <-playDone:
	case <-quit:
	}
}

// dispatchControlLines applies each line from lines as a control command
// until lines closes (no more input) or a quit command is seen, in which
// case it stops sess and closes done.
func dispatchControlLines(sess sessionController, lines <-chan string, done chan struct{}) {
	for line := range lines {
		switch strings.TrimSpace(line) {
		case "s", "stop":
			sess.Stop()
		case "p", "pause":
			sess.Pause()
		case "u", "unpause":
			sess.Unpause()
		case ">", "fwd":
			sess.Seek(10)
		case "<", "back":
			sess.Seek(-10)
		case "q", "quit":
			sess.Stop()
			close(done)
			return
		}
	}
}

// sessionController is the subset of *player.Session the interactive
// control loop needs; declared here so dispatchControlLines can be exercised
// against a fake in tests without opening a real output device.
type sessionController interface {
	Stop()
	Pause()
	Unpause()
	Seek(delta float64)
}
