package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/hbomb79/vidinfo/internal"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/urfave/cli/v2"
)

var log = logger.Get("Bootstrap")

// Version can be overridden during build using ldflags
var Version = "development"

func main() {
	app := &cli.App{
		Name:    "vidinfo",
		Usage:   "Report the resolution, frame rate and frame count of uploaded videos",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"VIDINFO_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "probe",
				Usage:     "Probe the video files provided and print a summary of each",
				ArgsUsage: "VIDEO_FILE...",
				Action:    probeCommand,
			},
			{
				Name:      "watch",
				Usage:     "Probe every video file written to a directory",
				ArgsUsage: "[DIRECTORY]",
				Action:    watchCommand,
			},
			{
				Name:   "serve",
				Usage:  "Accept video uploads over HTTP and stream their summaries over a websocket",
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func probeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: VIDEO_FILE")
	}

	vidinfo, err := bootstrap(c)
	if err != nil {
		return err
	}

	summaries := vidinfo.ProbeFiles(c.Args().Slice()...)
	for _, summary := range summaries {
		fmt.Fprintln(c.App.Writer, summary.Line)
	}

	if missing := c.NArg() - len(summaries); missing > 0 {
		return fmt.Errorf("%d of %d files could not be found", missing, c.NArg())
	}

	return nil
}

func watchCommand(c *cli.Context) error {
	vidinfo, err := bootstrap(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return vidinfo.Watch(ctx, c.Args().First())
}

func serveCommand(c *cli.Context) error {
	vidinfo, err := bootstrap(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return vidinfo.Serve(ctx)
}

func bootstrap(c *cli.Context) (*internal.App, error) {
	config, err := internal.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	config.ApplyLogLevel()

	return internal.New(*config), nil
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		log.Emit(logger.STOP, "Shutting down...\n")
	}()

	return ctx, cancel
}
