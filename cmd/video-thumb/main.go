package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"

	"github.com/ytget/video-thumb/internal/config"
	"github.com/ytget/video-thumb/internal/download"
	"github.com/ytget/video-thumb/internal/logging"
	"github.com/ytget/video-thumb/internal/pipeline"
	"github.com/ytget/video-thumb/internal/thumbnail"
	"github.com/ytget/video-thumb/internal/ui"
)

const (
	appID     = "com.ytget.video-thumb"
	usageLine = "Usage: video-thumb <Video URL>"

	exitError = 1
	exitUsage = 2
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	newApp = func() fyne.App { return app.NewWithID(appID) }
	exit   = os.Exit
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newCommand(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exitErr.ExitCode()
	}

	// flag parsing errors; cli has already shown the help text
	fmt.Fprintln(stderr, err)
	return exitUsage
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "video-thumb",
		Usage:     "Download a video and extract a thumbnail from it",
		ArgsUsage: "<Video URL>",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// exit codes are handled by run
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory downloaded videos are saved to",
				Value:   config.DefaultDownloadDir,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path the thumbnail is written to",
				Value:   config.DefaultThumbnailPath,
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: "ffmpeg binary name or path",
				Value: config.DefaultFFmpegPath,
			},
			&cli.BoolFlag{
				Name:  "no-open",
				Usage: "Do not display the thumbnail after processing",
			},
			&cli.StringFlag{
				Name:  "viewer",
				Usage: fmt.Sprintf("How to display the thumbnail (%s or %s)", config.ViewerSystem, config.ViewerWindow),
				Value: string(config.DefaultViewer),
			},
			&cli.IntFlag{
				Name:    "width",
				Aliases: []string{"w"},
				Usage:   "Scale the thumbnail to this width in pixels (0 keeps the video size)",
				Value:   config.DefaultThumbnailWidth,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Limit for the download and for ffmpeg (0 means no limit)",
				Value: config.DefaultHTTPTimeout,
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print progress as a text line instead of a bar",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Store the given flags as defaults for later runs",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit(usageLine, exitUsage)
			}

			a := newApp()
			a.Settings().SetTheme(ui.NewViewerTheme())
			settings := config.NewSettings(a)

			opts, err := applyFlags(settings.Options(), cmd)
			if err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}
			log := logging.NewLogger(stderr, cmd.Bool("verbose"))
			if cmd.Bool("save") {
				if err := settings.Save(opts); err != nil {
					log.WithError(err).Warn("could not save settings")
				}
			}
			runner := newRunner(a, opts, cmd.Bool("plain"), stdout, log)

			if _, err := runner.Run(ctx, cmd.Args().First()); err != nil {
				return cli.Exit(errorMessage(err), exitError)
			}
			return nil
		},
	}
}

// applyFlags overrides stored settings with the flags given on the command line
func applyFlags(opts config.Options, cmd *cli.Command) (config.Options, error) {
	if cmd.IsSet("dir") {
		opts.DownloadDir = cmd.String("dir")
	}
	if cmd.IsSet("output") {
		opts.ThumbnailPath = cmd.String("output")
	}
	if cmd.IsSet("ffmpeg") {
		opts.FFmpegPath = cmd.String("ffmpeg")
	}
	if cmd.IsSet("no-open") {
		opts.OpenAfter = !cmd.Bool("no-open")
	}
	if cmd.IsSet("viewer") {
		viewer, err := config.ParseViewer(cmd.String("viewer"))
		if err != nil {
			return opts, err
		}
		opts.Viewer = viewer
	}
	if cmd.IsSet("width") {
		width := cmd.Int("width")
		if width < 0 || width > config.MaxThumbnailWidth {
			return opts, fmt.Errorf("width must be between 0 and %d", config.MaxThumbnailWidth)
		}
		opts.ThumbnailWidth = width
	}
	if cmd.IsSet("timeout") {
		timeout := cmd.Duration("timeout")
		if timeout < 0 {
			return opts, errors.New("timeout must not be negative")
		}
		opts.HTTPTimeout = timeout
	}
	return opts, nil
}

func newRunner(a fyne.App, opts config.Options, plain bool, stdout io.Writer, log logrus.FieldLogger) *pipeline.Runner {
	downloader := download.NewService(opts.DownloadDir, log)
	downloader.SetHTTPClient(&http.Client{Timeout: opts.HTTPTimeout})
	downloader.SetUserAgent(userAgent())

	extractor := thumbnail.NewService(opts.ThumbnailPath, log)
	extractor.SetFFmpegPath(opts.FFmpegPath)
	extractor.SetWidth(opts.ThumbnailWidth)
	extractor.SetTimeout(opts.HTTPTimeout)

	var displayer ui.Displayer
	if opts.OpenAfter {
		displayer = ui.NewDisplayer(opts.Viewer, a)
	}

	reporter := ui.NewConsoleReporter(stdout, plain)
	return pipeline.NewRunner(downloader, extractor, displayer, reporter.OnDownloadUpdate, stdout, log)
}

func userAgent() string {
	return "video-thumb/" + version
}

// errorMessage formats a failed run for stderr, with a hint for HTTP errors
func errorMessage(err error) string {
	msg := fmt.Sprintf("error: %v", err)
	if statusErr, ok := download.IsStatusError(err); ok {
		msg += fmt.Sprintf("\nThe server answered HTTP %d; check that the URL points at a video file.", statusErr.Code)
	}
	return msg
}
