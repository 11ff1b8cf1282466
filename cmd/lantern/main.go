// Package main is the entry point for the Lantern plugin host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dshills/lantern/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type cliFlags struct {
	opts    app.Options
	list    bool
	enable  string
	disable string
	toggle  string
}

func run() int {
	flags := parseFlags()

	application, err := app.New(flags.opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	if err := application.Startup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case flags.enable != "":
		if err := application.EnablePlugin(flags.enable); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case flags.disable != "":
		if err := application.DisablePlugin(flags.disable); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case flags.toggle != "":
		if err := application.TogglePlugin(flags.toggle); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if flags.list || flags.enable != "" || flags.disable != "" || flags.toggle != "" {
		printPlugins(application)
		if application.NeedsRestart() {
			fmt.Println("\nActive plugin set changed; restart lantern to apply.")
		}
		return 0
	}

	printSummary(application)
	return 0
}

func printPlugins(application *app.App) {
	plugins := application.Plugins()
	if len(plugins) == 0 {
		fmt.Println("No plugins found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tSCOPE\tSTATUS\tENABLED")
	for _, p := range plugins {
		enabled := ""
		if p.Enabled {
			enabled = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Version, p.Scope, p.Status, enabled)
	}
	w.Flush()
}

func printSummary(application *app.App) {
	coord := application.Coordinator()
	fmt.Printf("Plugins: %d discovered, %d active\n", len(coord.Plugins()), coord.EnabledCount())

	if stale := coord.UnavailableEnabledPlugins(); len(stale) > 0 {
		fmt.Printf("Unavailable but enabled: %v\n", stale)
	}

	commands := application.Commands()
	if len(commands) > 0 {
		fmt.Printf("Commands: %d\n", len(commands))
		for _, cmd := range commands {
			fmt.Printf("  %s\n", cmd.ID())
		}
	}
}

func parseFlags() cliFlags {
	var flags cliFlags
	var showVersion bool
	var showHelp bool

	flag.StringVar(&flags.opts.WorkspacePath, "workspace", "", "Workspace directory")
	flag.StringVar(&flags.opts.WorkspacePath, "w", "", "Workspace directory (shorthand)")
	flag.StringVar(&flags.opts.SettingsPath, "settings", "", "Path to settings file")
	flag.StringVar(&flags.opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&flags.opts.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&flags.opts.Debug, "d", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&flags.list, "list", false, "List plugins")
	flag.BoolVar(&flags.list, "l", false, "List plugins (shorthand)")
	flag.StringVar(&flags.enable, "enable", "", "Enable a plugin by ID")
	flag.StringVar(&flags.disable, "disable", "", "Disable a plugin by ID")
	flag.StringVar(&flags.toggle, "toggle", "", "Toggle a plugin by ID")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Lantern - scriptable terminal workbench\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lantern [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lantern                         Activate plugins and show a summary\n")
		fmt.Fprintf(os.Stderr, "  lantern -list                   List discovered plugins\n")
		fmt.Fprintf(os.Stderr, "  lantern -enable git-tools@user  Enable a plugin\n")
		fmt.Fprintf(os.Stderr, "  lantern -w ./project -list      List plugins for a workspace\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Lantern %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch flags.opts.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", flags.opts.LogLevel)
		os.Exit(1)
	}

	return flags
}
