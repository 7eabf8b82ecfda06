// Command dictpack moves dictionary data between a SQL source and a pack
// file.
//
// Usage:
//
//	go run ./cmd/dictpack export -out data/dictionary.pack [-config ...]
//	go run ./cmd/dictpack import -in data/dictionary.pack [-config ...]
//
// The SQL side is resources.source from the config, which must be
// postgres or sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/pack"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/source"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "configs/development.yaml", "path to config file")
	in := fs.String("in", "", "pack file to import")
	out := fs.String("out", "", "pack file to write")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Resources.Source == "pack" {
		fmt.Fprintln(os.Stderr, "resources.source must be postgres or sqlite")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Resources.LoadTimeout)
	defer cancel()

	start := time.Now()
	var n int
	switch cmd {
	case "export":
		if *out == "" {
			*out = cfg.Resources.PackPath
		}
		n, err = export(ctx, cfg, *out)
	case "import":
		if *in == "" {
			*in = cfg.Resources.PackPath
		}
		n, err = importPack(ctx, cfg, *in)
	default:
		usage()
	}
	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
	slog.Info(cmd+" complete", "records", n, "took", time.Since(start))
}

func export(ctx context.Context, cfg *config.Config, path string) (int, error) {
	src, err := source.Open(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return source.Export(ctx, src, path)
}

func importPack(ctx context.Context, cfg *config.Config, path string) (int, error) {
	r, err := pack.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	dst, err := source.Open(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return source.Import(ctx, r, dst)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dictpack export|import [-config path] [-in file] [-out file]")
	os.Exit(2)
}
