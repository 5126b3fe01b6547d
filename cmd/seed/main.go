// seed loads portfolio content from a YAML file into the configured
// backend. It reads the same environment and .env as the server.
//
//	seed --file seed.yaml
//	seed --file seed.yaml --dry-run
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/bootstrap"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		path   string
		dryRun bool
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&path, "file", "f", "seed.yaml", "path to the YAML seed file")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the file without writing anything")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	seed, err := loadSeed(path)
	if err != nil {
		return err
	}
	if dryRun {
		if err := seed.validate(); err != nil {
			return err
		}
		fmt.Printf("%s: %d projects, %d certificates, %d tech items, profile: %t\n",
			path, len(seed.Projects), len(seed.Certificates), len(seed.TechStack), seed.Profile != nil)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := bootstrap.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	n, err := apply(ctx, backend.Table, seed, log.Named("seed"))
	if err != nil {
		log.Error("seed failed", zap.Error(err))
		return err
	}
	fmt.Printf("seeded %d projects, %d certificates, %d tech items (profile: %t)\n",
		n.Projects, n.Certificates, n.TechStack, n.Profile)
	return nil
}
