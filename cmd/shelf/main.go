package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FileShelf/internal/cli/commands"
	"FileShelf/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(commands.Out, commands.FormatGlobalUsage())
	}
	// Load unified config (env + flags)
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// dispatcher
	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == commands.ExitOK {
		return
	}
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("FileShelf CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
