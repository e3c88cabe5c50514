// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

// nvimbridge is an MCP server exposing a running Neovim session as a
// set of tools. It speaks JSON-RPC 2.0 over stdin/stdout and relays
// each tool call to Neovim's RPC socket.
//
// Stdout carries the protocol stream, so all logging goes to stderr.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nvimbridge/nvimbridge/bridge"
	"github.com/nvimbridge/nvimbridge/lib/config"
	"github.com/nvimbridge/nvimbridge/lib/version"
	"github.com/nvimbridge/nvimbridge/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		socketPath  string
		allowShell  bool
		configPath  string
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("nvimbridge", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", "", "Neovim RPC socket path (default /tmp/nvim)")
	flagSet.BoolVar(&allowShell, "allow-shell", false, "enable \"!\" shell passthrough commands")
	flagSet.StringVar(&configPath, "config", "", "config file path (.yaml, .yml, .json, or .jsonc)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nvimbridge [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("nvimbridge %s\n", version.Info())
		return nil
	}

	// Layering: file (flag wins over NVIMBRIDGE_CONFIG), then
	// environment inside Load/LoadFile, then explicit flags.
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if flagSet.Changed("socket") {
		cfg.SocketPath = socketPath
	}
	if flagSet.Changed("allow-shell") {
		cfg.AllowShell = allowShell
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bridge.New(bridge.Config{
		SocketPath: cfg.SocketPath,
		AllowShell: cfg.AllowShell,
	})
	b.Logger = logger

	logger.Info("nvimbridge starting",
		"version", version.Short(),
		"socket", cfg.SocketPath,
		"allow_shell", cfg.AllowShell)

	server := mcp.NewServer(b, logger)
	return server.Serve(ctx)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
