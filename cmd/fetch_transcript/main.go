// Command fetch_transcript prints a YouTube video's transcript as JSON.
//
//	fetch_transcript VIDEO_ID [LANG]
//
// On success stdout holds an array of {"text","start","duration"} objects; on
// failure it holds {"error": "..."}. The exit code is 1 only when VIDEO_ID is
// missing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/horiagug/youtube-transcript-fetch/internal/config"
	"github.com/horiagug/youtube-transcript-fetch/internal/repository"
	"github.com/horiagug/youtube-transcript-fetch/internal/transcript"
	"github.com/horiagug/youtube-transcript-fetch/pkg/client"
	"github.com/horiagug/youtube-transcript-fetch/pkg/formatters"
	"github.com/horiagug/youtube-transcript-fetch/pkg/models"
)

const errVideoIDRequired = "Video ID required"

const (
	flagFormat  = "format"
	flagTimeout = "timeout"
	flagList    = "list"
)

type transcriptClient interface {
	transcript.Provider
	ListTranscripts(ctx context.Context, videoID string) ([]models.TranscriptInfo, error)
	Close() error
}

type clientFactory func(ctx context.Context, cfg config.Config) transcriptClient

// exitError carries a process exit code out of cobra.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, newClient))
}

func run(ctx context.Context, args []string, stdout io.Writer, factory clientFactory) int {
	cmd := newRootCmd(stdout, factory)
	cmd.SetArgs(splitArgs(args))
	cmd.SetOut(stdout)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	// flag parsing and other usage errors
	writeJSON(stdout, transcript.ErrorResult(err.Error()))
	return 1
}

func newRootCmd(stdout io.Writer, factory clientFactory) *cobra.Command {
	var (
		format  string
		timeout time.Duration
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch_transcript VIDEO_ID [LANG]",
		Short: "Print a YouTube video's transcript as JSON",
		Example: `  fetch_transcript dQw4w9WgXcQ
  fetch_transcript dQw4w9WgXcQ en --format srt
  fetch_transcript "https://www.youtube.com/watch?v=dQw4w9WgXcQ" --list`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				writeJSON(stdout, transcript.ErrorResult(errVideoIDRequired))
				return exitError{code: 1}
			}

			videoID := args[0]
			lang := transcript.DefaultLanguage
			if len(args) > 1 {
				lang = args[1]
			}

			formatter, err := formatters.ByName(format)
			if err != nil {
				writeJSON(stdout, transcript.ErrorResult(err.Error()))
				return exitError{code: 1}
			}

			cfg := config.Load()
			if cmd.Flags().Changed("timeout") {
				cfg.FetchTimeout = timeout
			}
			slog.SetDefault(config.NewLogger(cfg.LogLevel))

			tc := factory(cmd.Context(), cfg)
			defer func() {
				if err := tc.Close(); err != nil {
					slog.Debug("client close failed", slog.Any("error", err))
				}
			}()

			if list {
				printList(cmd.Context(), stdout, tc, videoID)
				return nil
			}

			result := transcript.Fetch(cmd.Context(), tc, videoID, lang)
			if result.Failed() || format == "" || format == "json" {
				writeJSON(stdout, result)
				return nil
			}

			fetched := models.FetchedTranscript{}
			if result.Transcript != nil {
				fetched = *result.Transcript
			}
			out, err := formatter.Format(fetched)
			if err != nil {
				writeJSON(stdout, transcript.ErrorResult(err.Error()))
				return nil
			}
			fmt.Fprintln(stdout, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, flagFormat, "f", "json", "Output format: json, text, srt or webvtt")
	cmd.Flags().DurationVar(&timeout, flagTimeout, 30*time.Second, "Overall fetch timeout (overrides FETCH_TIMEOUT)")
	cmd.Flags().BoolVar(&list, flagList, false, "List the available transcripts instead of fetching one")

	// Replaces cobra's -h/--help so no plain-text help reaches stdout.
	cmd.Flags().Bool("help", false, "")
	_ = cmd.Flags().MarkHidden("help")

	return cmd
}

func printList(ctx context.Context, stdout io.Writer, tc transcriptClient, videoID string) {
	infos, err := tc.ListTranscripts(ctx, videoID)
	if err != nil {
		writeJSON(stdout, transcript.ErrorResult(err.Error()))
		return
	}
	if infos == nil {
		infos = []models.TranscriptInfo{}
	}
	writeJSON(stdout, infos)
}

// splitArgs keeps the command's own flags and moves every other argument
// behind a "--" terminator. Video IDs may start with "-" and must never be
// parsed as flags.
func splitArgs(args []string) []string {
	flags := make([]string, 0, len(args)+1)
	positional := make([]string, 0, len(args))

loop:
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			break loop
		case arg == "--"+flagFormat || arg == "-f" || arg == "--"+flagTimeout:
			flags = append(flags, arg)
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		case arg == "--"+flagList,
			strings.HasPrefix(arg, "--"+flagFormat+"="),
			strings.HasPrefix(arg, "-f="),
			strings.HasPrefix(arg, "--"+flagTimeout+"="),
			strings.HasPrefix(arg, "--"+flagList+"="):
			flags = append(flags, arg)
		default:
			positional = append(positional, arg)
		}
	}

	return append(append(flags, "--"), positional...)
}

// writeJSON prints v as a single line without HTML escaping.
func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode output", slog.Any("error", err))
		fallback, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "%s\n", fallback)
	}
}

func newClient(ctx context.Context, cfg config.Config) transcriptClient {
	cache := repository.NewCache(ctx, cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries)
	return client.New(
		client.WithTimeout(cfg.FetchTimeout),
		client.WithRetry(repository.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			InitialWait: cfg.RetryInitialWait,
			MaxWait:     cfg.RetryMaxWait,
		}),
		client.WithAcceptLanguage(cfg.AcceptLanguage),
		client.WithCache(cache),
	)
}
