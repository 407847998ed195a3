// ABOUTME: The library command
// ABOUTME: Lists the music directory with the lyrics status of each song
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/app"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/config"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/library"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/logging"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const (
	statusSynced       = "synced"
	statusPlain        = "plain"
	statusInstrumental = "instrumental"
	statusNone         = "none"
	statusError        = "error"
)

func newLibraryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "List songs and whether they have lyrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibrary(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	config.BindPlayerFlags(cmd, cfg)
	return cmd
}

func runLibrary(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if err := cfg.Validate(true); err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	defer closer.Close()

	songs, err := library.Scan(cfg.MusicDir)
	if err != nil {
		return err
	}

	stores, err := app.OpenStore(ctx, *cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	statuses := make([]string, len(songs))
	for i, song := range songs {
		statuses[i] = lyricsStatus(ctx, stores.Store, song)
	}

	renderLibrary(out, songs, statuses)
	fmt.Fprintf(out, "\n%d songs, lyrics from %s\n", len(songs), stores.Source)
	return nil
}

func lyricsStatus(ctx context.Context, s lyrics.Store, song library.Song) string {
	if song.Instrumental {
		return statusInstrumental
	}

	doc, err := s.Fetch(ctx, song.ID)
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		return statusNone
	case err != nil:
		return statusError
	case doc.Instrumental():
		return statusInstrumental
	case doc.Lines() != nil:
		return statusSynced
	case doc.Empty():
		return statusNone
	}
	return statusPlain
}

func renderLibrary(out io.Writer, songs []library.Song, statuses []string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	if out == os.Stdout {
		t.SetAllowedRowLength(120)
	}

	t.AppendHeader(table.Row{"#", "Title", "Artist", "Album", "Lyrics"})
	for i, song := range songs {
		t.AppendRow(table.Row{
			i + 1,
			song.Title,
			song.Artist,
			song.Album,
			statusColor(statuses[i])(statuses[i]),
		})
	}

	t.Render()
}

func statusColor(status string) func(a ...interface{}) string {
	switch status {
	case statusSynced:
		return text.FgGreen.Sprint
	case statusPlain:
		return text.FgYellow.Sprint
	case statusInstrumental:
		return text.FgCyan.Sprint
	case statusError:
		return text.FgHiRed.Sprint
	default:
		return text.FgHiBlack.Sprint
	}
}
