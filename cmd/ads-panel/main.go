// Command ads-panel draws live aircraft over a map on a small display.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/unklstewy/ads-panel/internal/panel"
	"github.com/unklstewy/ads-panel/pkg/config"
	"github.com/unklstewy/ads-panel/pkg/logging"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	showHelp := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *showHelp {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		flag.PrintDefaults()
		return
	}
	if *showVersion {
		fmt.Println("ads-panel", version)
		return
	}

	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, logger, *configPath))
}

func run(cfg *config.Config, logger *logging.Logger, configPath string) int {
	defer logger.Close()

	if cfg.Display.Driver != config.DriverTerminal {
		fmt.Fprintln(os.Stderr, banner(cfg, configPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := panel.Setup(cfg, logger.Logger, panel.SetupOptions{OnQuit: stop})
	if err != nil {
		var cfgErr *panel.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error("Panel configuration rejected", "component", cfgErr.Component, "error", cfgErr.Err)
		} else {
			logger.Error("Panel setup failed", "error", err)
		}
		return 1
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to release panel", "error", err)
		}
	}()

	if err := p.Scheduler.Run(ctx); err != nil {
		logger.Error("Render loop stopped", "error", err)
		return 1
	}

	logger.Info("Shutting down")
	return 0
}

// banner renders the startup summary shown before the loop takes over.
func banner(cfg *config.Config, configPath string) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	cal := cfg.Map.Calibration
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("ads-panel "+version),
		row("config", configPath),
		row("display", fmt.Sprintf("%s %dx%d @ %d fps", cfg.Display.Driver, cfg.Display.Width, cfg.Display.Height, cfg.Display.FPS)),
		row("telemetry", cfg.Telemetry.Source),
		row("map", fmt.Sprintf("%.4f,%.4f → %.4f,%.4f", cal.P0.Latitude, cal.P0.Longitude, cal.P1.Latitude, cal.P1.Longitude)),
	)
}
