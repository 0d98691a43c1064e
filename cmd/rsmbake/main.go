// rsmbake bakes Ragnarok Online RSM model animations into timeline documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-bake/internal/config"
	"github.com/Faultbox/midgard-bake/internal/logger"
	"github.com/Faultbox/midgard-bake/pkg/grf"
	"github.com/Faultbox/midgard-bake/pkg/rsm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("rsmbake", flag.ExitOnError)
	fs.Usage = printUsage
	flags := config.RegisterFlags(fs)
	fs.Parse(argv)

	if fs.NArg() < 1 {
		printUsage()
		return 1
	}
	command, args := fs.Arg(0), fs.Args()[1:]
	if command == "help" {
		printUsage()
		return 0
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "bake":
		err = cmdBake(ctx, cfg, args)
	case "info":
		err = cmdInfo(cfg, args)
	case "models", "ls":
		err = cmdModels(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return 1
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Println(`rsmbake - bake RSM model animations into timeline documents

Usage:
  rsmbake [flags] <command> [args]

Commands:
  bake <model.rsm>...        Bake every clip of each model
  info <model.rsm>           Show the node hierarchy and animation length
  models [file.grf] [match]  List RSM models in GRF archives
  config [path]              Write the effective config
  help                       Show this help

Flags:
  -config <file>   Config file (default ./rsmbake.yaml)
  -debug           Enable debug logging
  -out <dir,dir>   Output directories
  -format <name>   interned, inline or matrix
  -fps <rate>      Sampling frame rate
  -basis <name>    world, rest or axis
  -grf <file.grf>  Archive to load models from

Examples:
  rsmbake bake windmill.rsm
  rsmbake -grf data.grf -out anims bake "data\model\프론테라\풍차.rsm"
  rsmbake models data.grf windmill`)
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rsmbake info <model.rsm>")
	}

	model, err := loadModel(args[0], cfg.Data.GRFPaths)
	if err != nil {
		return err
	}

	fmt.Printf("Model:     %s\n", args[0])
	fmt.Printf("Version:   %s\n", model.Version)
	fmt.Printf("Length:    %d ms\n", model.AnimLength)
	fmt.Printf("Animated:  %v\n", model.HasAnimation())
	fmt.Printf("Nodes:     %d\n", len(model.Nodes))
	fmt.Println()

	root := model.Root()
	if root == nil {
		return nil
	}
	var walk func(n *rsm.Node, depth int)
	seen := map[*rsm.Node]bool{}
	walk = func(n *rsm.Node, depth int) {
		if seen[n] {
			return
		}
		seen[n] = true
		fmt.Printf("%s%-*s pos=%d rot=%d scale=%d\n", strings.Repeat("  ", depth),
			32-2*depth, n.Name, len(n.PosKeys), len(n.RotKeys), len(n.ScaleKeys))
		for _, c := range model.Children(n.Name) {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return nil
}

func cmdModels(cfg *config.Config, args []string) error {
	archives := cfg.Data.GRFPaths
	pattern := ""
	if len(args) > 0 && strings.HasSuffix(strings.ToLower(args[0]), ".grf") {
		archives = []string{args[0]}
		args = args[1:]
	}
	if len(args) > 0 {
		pattern = strings.ToLower(args[0])
	}
	if len(archives) == 0 {
		return fmt.Errorf("no GRF archive given")
	}

	count := 0
	for _, path := range archives {
		archive, err := grf.Open(path)
		if err != nil {
			return err
		}
		for _, f := range archive.List() {
			lower := strings.ToLower(f)
			if filepath.Ext(lower) != ".rsm" {
				continue
			}
			if pattern != "" && !strings.Contains(lower, pattern) {
				continue
			}
			fmt.Println(f)
			count++
		}
		archive.Close()
	}

	fmt.Fprintf(os.Stderr, "\n(%d models found)\n", count)
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}
	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
