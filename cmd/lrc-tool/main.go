// ABOUTME: Command line utility for timed-lyrics files
// ABOUTME: Normalizes LRC text and previews which line is active at a time
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var errNoTimedLines = errors.New("no timed lines found")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lrc-tool",
		Short:        "Inspect and normalize timed-lyrics files",
		SilenceUsage: true,
	}
	root.AddCommand(newFmtCmd(), newShowCmd())
	return root
}

func newFmtCmd() *cobra.Command {
	write := false

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a file sorted by time with MM:SS.CC timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			out, err := formatLRC(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if write {
				return os.WriteFile(args[0], []byte(out+"\n"), 0644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to FILE")

	return cmd
}

func newShowCmd() *cobra.Command {
	at := 0.0

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "List timed lines and mark the one active at --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			lines := lrc.Parse(string(data))
			if lines == nil {
				return fmt.Errorf("%s: %w", args[0], errNoTimedLines)
			}

			renderShow(cmd.OutOrStdout(), lines, at)
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Playback time in seconds")

	return cmd
}

// formatLRC parses text and serializes it back, dropping untimed lines
func formatLRC(input string) (string, error) {
	lines := lrc.Parse(input)
	if lines == nil {
		return "", errNoTimedLines
	}

	markers := make([]lrc.Marker, len(lines))
	for i, l := range lines {
		markers[i] = lrc.Marker{Index: i, Time: l.Time, Text: l.Text}
	}
	return lrc.Serialize(markers), nil
}

func renderShow(out io.Writer, lines []lrc.Line, at float64) {
	active := lyrics.ActiveIndex(lines, at)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"", "#", "Time", "Text"})
	for i, l := range lines {
		row := table.Row{"", i + 1, lrc.FormatTimestamp(l.Time), l.Text}
		if i == active {
			row[0] = "▶"
			row[3] = text.FgYellow.Sprint(l.Text)
		}
		t.AppendRow(row)
	}

	caption := fmt.Sprintf("at %s: ", lrc.FormatTimestamp(at))
	if active < 0 {
		caption += "lead-in"
	} else {
		caption += fmt.Sprintf("line %d", active+1)
	}
	t.SetCaption(caption)

	t.Render()
}
