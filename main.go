package main

import (
	"context"
	"flag"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/maskline/maskline/compositor"
	"github.com/maskline/maskline/config"
	"github.com/maskline/maskline/domain"
	"github.com/maskline/maskline/pairsync"
	"github.com/maskline/maskline/player"
	"github.com/maskline/maskline/probe"
	"github.com/maskline/maskline/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (overrides the default search)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &probe.FFProbe{}
	sourceInfo, err := prober.Probe(ctx, cfg.Video.Source)
	if err != nil {
		logrus.WithError(err).WithField("uri", cfg.Video.Source).Fatal("content stream unusable")
	}
	if _, err := prober.Probe(ctx, cfg.Video.Mask); err != nil {
		logrus.WithError(err).WithField("uri", cfg.Video.Mask).Fatal("mask stream unusable")
	}

	content, err := player.NewMPVHandle(ctx, "content", cfg.Video.Source, domain.HandleOptions{
		Loop:     cfg.Video.Loop,
		KeepOpen: true,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create content player")
	}

	mask, err := player.NewMPVHandle(ctx, "mask", cfg.Video.Mask, domain.HandleOptions{
		Muted:    true,
		Loop:     cfg.Video.Loop,
		KeepOpen: true,
	})
	if err != nil {
		content.Cleanup()
		logrus.WithError(err).Fatal("failed to create mask player")
	}

	// The coordinator owns both handles from here; Close is the single
	// teardown path.
	coordinator := pairsync.NewCoordinator(pairsync.SyncPair{
		Primary:  content,
		Follower: mask,
	}, cfg.Sync.GetInterval(), cfg.Sync.GetThreshold())
	defer coordinator.Close()

	if err := coordinator.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start pair")
	}

	frames := startPreview(ctx, cfg, sourceInfo)

	app := ui.NewApp(ctx, cfg, coordinator, sourceInfo, frames)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("ui exited with error")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			logrus.SetOutput(f)
			return
		}
		logrus.WithError(err).Warn("cannot open log file, logging to stderr")
	}
	// The TUI owns stdout, keep log noise on stderr.
	logrus.SetOutput(os.Stderr)
}

// startPreview spins up the side-channel compositing pipeline when enabled.
// The pipeline decodes both streams independently of the players, so a
// preview failure never degrades playback.
func startPreview(ctx context.Context, cfg *config.Config, info *probe.SourceInfo) <-chan *image.RGBA {
	if !cfg.Preview.Enabled {
		return nil
	}

	outlineColor, err := cfg.Effect.ParseOutlineColor()
	if err != nil {
		logrus.WithError(err).Warn("invalid outline color, preview disabled")
		return nil
	}

	params := compositor.OutlineParams{
		OutlineColor:  outlineColor,
		OutlineWidth:  cfg.Effect.OutlineWidth,
		Opacity:       cfg.Effect.Opacity,
		EdgeThreshold: compositor.DefaultEdgeThreshold,
		SourceWidth:   info.Width,
	}

	pipeline, err := compositor.NewPipeline(ctx, cfg.Video.Source, cfg.Video.Mask, params, cfg.Preview.FPS, cfg.Preview.Width)
	if err != nil {
		logrus.WithError(err).Warn("preview pipeline unavailable")
		return nil
	}
	return pipeline.Frames()
}
