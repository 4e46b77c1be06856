package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
	"github.com/tartampluch/hivoyage/internal/server"
	"github.com/tartampluch/hivoyage/internal/ui"
)

// options are the command line settings.
type options struct {
	showVersion bool
	debug       bool
	tripURL     string
}

func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain returns the exit code instead of calling os.Exit so that deferred
// calls, such as closing the log file, still run.
func runMain(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return config.ExitCodeSuccess
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeUsage
	}

	if opts.showVersion {
		fmt.Printf(config.MsgVersionOutput, config.AppName, config.Version, runtime.GOOS, runtime.GOARCH)
		return config.ExitCodeSuccess
	}

	out := []io.Writer{os.Stdout}
	if f, err := openLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, config.LogFileName, err)
	} else {
		defer func() { _ = f.Close() }()
		out = append(out, f)
	}
	slog.SetDefault(newLogger(io.MultiWriter(out...), opts.debug))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// parseFlags reads the flags. The trip page URL may also be given as the
// only positional argument.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.showVersion, config.FlagVersion, false, config.FlagDescVersion)
	fs.BoolVar(&o.debug, config.FlagDebug, false, config.FlagDescDebug)
	fs.StringVar(&o.tripURL, config.FlagTrip, "", config.FlagDescTrip)
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case fs.NArg() == 1 && o.tripURL == "":
		o.tripURL = fs.Arg(0)
	case fs.NArg() > 0:
		return o, fmt.Errorf("%s: %v", config.ErrExtraArgs, fs.Args())
	}

	if o.tripURL != "" {
		if _, err := engine.TripIDFromURL(o.tripURL); err != nil {
			return o, err
		}
	}
	return o, nil
}

// run wires the feed and the window, then blocks until the window closes.
func run(ctx context.Context, opts options) error {
	a := app.NewWithID(config.AppID)
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	port := feedPort(a.Preferences().StringWithFallback(config.PrefServerPort, config.DefaultPort))
	gui := ui.NewTripApp(a, ctx, server.NewItineraryFeed(port))

	if opts.tripURL != "" {
		if err := gui.ApplyTripURL(opts.tripURL); err != nil {
			return err
		}
		slog.Info(config.MsgTripFromFlag,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyURL, opts.tripURL)
	}

	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	gui.Run()
	return nil
}

// feedPort returns the stored port, or the default when it is unusable.
func feedPort(stored string) string {
	if err := server.ValidatePort(stored); err != nil {
		slog.Warn(config.MsgPortFallback,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyPort, stored,
			config.LogKeyError, err)
		return config.DefaultPort
	}
	return stored
}

// newLogger builds the JSON logger. Debug mode lowers the level and adds
// source locations.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openLogFile truncates <UserCacheDir>/<AppID>/app.log.
func openLogFile() (*os.File, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}
	dir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return os.OpenFile(filepath.Join(dir, config.LogFileName), os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
}

func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}
