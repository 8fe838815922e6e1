// Command storycastd runs the storycast daemon in the foreground. It is the
// standalone counterpart of `storycast run` for service managers that launch
// the daemon directly.
package main

import (
	"context"
	"flag"
	"log"

	"storycast/internal/config"
	"storycast/internal/daemonrun"
)

func main() {
	var configPath string
	var socketPath string
	var logLevel string
	flag.StringVar(&configPath, "config", "", "Path to the configuration file")
	flag.StringVar(&socketPath, "socket", "", "Path to the IPC socket")
	flag.StringVar(&logLevel, "log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := buildOptions(cfg, socketPath, logLevel)
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}

func buildOptions(cfg *config.Config, socketPath, logLevel string) daemonrun.Options {
	opts := daemonrun.Options{
		SocketPath: socketPath,
		LogLevel:   logLevel,
	}
	if opts.SocketPath == "" && cfg != nil {
		opts.SocketPath = daemonrun.SocketPath(cfg)
	}
	return opts
}
