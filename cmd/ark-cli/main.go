// ark-cli is a command-line wallet for ARK networks.
//
// Usage:
//
//	ark-cli [global options] <command> [command options] [args]
//	ark-cli --help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, flags, err := config.Load(args)
	if errors.Is(err, config.ErrHelp) {
		config.PrintUsage(stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if flags.Version {
		fmt.Fprintf(stdout, "ark-cli %s\n", version)
		return 0
	}
	if flags.Help || len(flags.Args) == 0 {
		config.PrintUsage(stderr)
		if flags.Help {
			return 0
		}
		return 1
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(stderr, "Error: init logging: %v\n", err)
		return 1
	}
	if err := config.EnsureDataDirs(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCLI(cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer c.close()

	if err := c.dispatch(ctx, flags.Args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr)
			config.PrintUsage(stderr)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
