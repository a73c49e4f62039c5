package main

import (
	"flag"
	"os"
	"path/filepath"

	"gridwalk/internal/config"
	"gridwalk/internal/logger"
	"gridwalk/internal/scene"
	"gridwalk/internal/viewer"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	ensureRuntimeCWD(*configPath)

	// Load configuration
	cfg := config.MustLoadConfig(*configPath)
	log := logger.Log
	logger.SetLevel(log, cfg.GetLogLevel())

	s, err := scene.Load(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load scene")
	}
	defer s.Close()

	// Set window properties from config
	ebiten.SetWindowSize(cfg.GetScreenWidth(), cfg.GetScreenHeight())
	ebiten.SetWindowTitle(cfg.Display.WindowTitle)
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetTPS(cfg.GetTPS())

	v := viewer.New(cfg, s, log)
	defer v.Close()
	if err := ebiten.RunGame(v); err != nil {
		log.WithError(err).Fatal("Viewer stopped")
	}
}

// ensureRuntimeCWD switches to the executable's directory when the config is
// not reachable from the current one.
func ensureRuntimeCWD(configPath string) {
	if _, err := os.Stat(configPath); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	_ = os.Chdir(filepath.Dir(exe))
}
