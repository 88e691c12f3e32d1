package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/testbed"
)

type demoOptions struct {
	headless    bool
	frames      int
	fps         int
	watch       bool
	snapshot    string
	assets      string
	watchAssets bool
}

func newDemoCommand() *cobra.Command {
	var opts demoOptions
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the testbed scene",
		Long: `Render a spinning textured quad into an offscreen target and blit it
to the screen. Without --headless a window is opened; Escape closes it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "render without a window")
	cmd.Flags().IntVar(&opts.frames, "frames", 0, "stop after this many frames (0 runs until closed)")
	cmd.Flags().IntVar(&opts.fps, "fps", 60, "frame rate cap (0 disables it)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the configuration file when it changes")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "write the last offscreen frame to this PNG file")
	cmd.Flags().StringVar(&opts.assets, "assets", "", "directory whose first .mat and .obj replace the built-in scene")
	cmd.Flags().BoolVar(&opts.watchAssets, "watch-assets", false, "reload the assets when they change")
	return cmd
}

func runDemo(ctx context.Context, opts demoOptions) error {
	if opts.frames < 0 || opts.fps < 0 {
		return core.InvalidArgument("--frames and --fps must not be negative")
	}
	if opts.watchAssets && opts.assets == "" {
		return core.InvalidArgument("--watch-assets needs --assets")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app := &engine.ApplicationConfig{
		Name:        "Lumen Demo",
		ConfigPath:  viper.GetString("config"),
		WatchConfig: opts.watch,
		Headless:    opts.headless,
		MaxFrames:   opts.frames,
		TargetFPS:   opts.fps,
		LogLevel:    viper.GetString("log-level"),
	}
	game := testbed.NewTestGame(app)
	game.SnapshotPath = opts.snapshot
	game.AssetsPath = opts.assets
	game.WatchAssets = opts.watchAssets

	e, err := engine.New(game.Game)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return errors.Join(err, e.Shutdown())
	}
	runErr := e.Run(ctx)
	core.LogInfo("demo rendered %d frames", e.Frames())
	return errors.Join(runErr, e.Shutdown())
}
