// Command server runs the formprobe HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"formprobe/buildinfo"
	"formprobe/server"
)

type args struct {
	configPath  string
	listenAddr  string
	showVersion bool
}

func main() {
	if err := run(parseArgs()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(a args) error {
	if a.showVersion {
		props := buildinfo.Get()
		fmt.Printf("formprobe-server %s (commit %s, built %s)\n", props.Version, props.GitCommit, props.BuildTime)
		return nil
	}

	if a.configPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	var opts []server.Option
	if a.listenAddr != "" {
		opts = append(opts, server.WithListenAddr(a.listenAddr))
	}

	srv, err := server.New(a.configPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// SIGINT and SIGTERM start a graceful shutdown through context
	// cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		srv.Logger().Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	return srv.Run(ctx)
}

func parseArgs() args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	listenAddr := flag.String("listen", "", "Listen address, overrides the config file")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFormprobe Server - Metadata-Driven Form Testing API\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/formprobe/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml --listen :9090\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return args{
		configPath:  path,
		listenAddr:  *listenAddr,
		showVersion: *showVersion,
	}
}
