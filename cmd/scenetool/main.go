// scenetool loads glTF scenes and reports what the scene evaluator produces
// for them.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/internal/gltfio"
	"github.com/Faultbox/scenegraph/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	if len(args) > 1 && command != "config" {
		cfg.Scene.Path = args[1]
	}

	switch command {
	case "info":
		err = cmdInfo(cfg)
	case "frame":
		err = cmdFrame(cfg)
	case "pick":
		err = cmdPick(cfg, args[min(len(args), 2):])
	case "wire":
		err = cmdWire(cfg, args[min(len(args), 2):])
	case "config":
		err = cmdConfig(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - glTF scene evaluation utility

Usage:
  scenetool [flags] <command> [file]

Commands:
  info <file.glb>     Show node, mesh, skin and animation tables
  frame <file.glb>    Evaluate frames and print drawcall and cascade statistics
  pick <file.glb> x y Report the node under a pixel of the first frame
  wire <file.glb> out Write bounds, cascade slices and light volumes as OBJ lines
  config [path]       Write the effective configuration (default: user config dir)

Flags:
  -config <path>      Config file
  -debug              Debug logging
  -scene <path>       Scene file (instead of the positional argument)
  -cascades <n>       Shadow cascade count
  -blend <0-1>        Linear split blend ratio
  -frames <n>         Frames to evaluate

Examples:
  scenetool info models/fox.glb
  scenetool -frames 30 -cascades 4 frame models/fox.glb
  scenetool pick models/fox.glb 640 360
  scenetool -cascades 2 wire models/fox.glb cascades.obj`)
}

// cmdConfig writes the merged defaults, file and flag settings.
func cmdConfig(cfg *config.Config, rest []string) error {
	if len(rest) > 0 {
		if err := cfg.SaveTo(rest[0]); err != nil {
			return err
		}
		fmt.Println(rest[0])
		return nil
	}
	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// loadScene imports and assembles the configured scene, logging import
// progress while it runs.
func loadScene(cfg *config.Config) (*model.Model, error) {
	if cfg.Scene.Path == "" {
		return nil, fmt.Errorf("no scene given")
	}

	var progress gltfio.Progress
	opts := gltfio.Options{Workers: cfg.Import.Workers, Progress: &progress}
	if cfg.Scene.Index >= 0 {
		opts.Scene = &cfg.Scene.Index
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				stage, frac := progress.Load()
				logger.Debug("importing", zap.Stringer("stage", stage), zap.Float32("progress", frac))
			}
		}
	}()

	start := time.Now()
	desc, err := gltfio.Open(cfg.Scene.Path, opts)
	close(done)
	if err != nil {
		return nil, err
	}

	m, err := model.New(*desc)
	if err != nil {
		return nil, err
	}
	logger.Info("scene ready",
		zap.String("path", cfg.Scene.Path),
		zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

func cmdInfo(cfg *config.Config) error {
	m, err := loadScene(cfg)
	if err != nil {
		return err
	}

	topo := m.Topology()
	renderable := 0
	for _, r := range topo.Renderable {
		if r {
			renderable++
		}
	}

	fmt.Printf("Scene:      %s\n", cfg.Scene.Path)
	fmt.Printf("Nodes:      %d (%d renderable, %d roots)\n", m.NodeCount(), renderable, len(m.Roots()))
	fmt.Printf("Meshes:     %d (%d primitives)\n", len(m.Meshes()), m.PrimitiveCount())
	fmt.Printf("Materials:  %d\n", m.Materials().Len())
	fmt.Printf("Skins:      %d\n", len(m.Skins()))
	if len(topo.Shared) > 0 {
		fmt.Printf("Shared:     %v\n", topo.Shared)
	}

	if clips := m.Animations(); len(clips) > 0 {
		fmt.Println()
		fmt.Println("Animations:")
		for i, c := range clips {
			fmt.Printf("  %3d  %-24s %6.2fs  %d channels\n", i, c.Name, c.Duration(), len(c.Channels))
		}
	}

	if skins := m.Skins(); len(skins) > 0 {
		fmt.Println()
		fmt.Println("Skins:")
		for i, s := range skins {
			fmt.Printf("  %3d  %-24s %d joints\n", i, s.Name, len(s.Joints))
		}
	}
	return nil
}
