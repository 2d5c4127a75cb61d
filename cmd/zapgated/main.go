package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/fx"

	"github.com/pvictorino/zapgate/internal/config"
	"github.com/pvictorino/zapgate/internal/daemon"
	"github.com/pvictorino/zapgate/internal/instance"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default: <data dir>/config.toml)")
	flag.Parse()

	path := *configFlag
	if path == "" {
		path = filepath.Join(config.Default().DataDir, "config.toml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := instance.ValidateName(cfg.Instance); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(cfg),
	)

	app.Run()
}
