// Command inspect-telemetry polls the configured telemetry source once and
// prints where each aircraft would be drawn on the panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/unklstewy/ads-panel/internal/panel"
	"github.com/unklstewy/ads-panel/pkg/adsb"
	"github.com/unklstewy/ads-panel/pkg/config"
	"github.com/unklstewy/ads-panel/pkg/coordinates"
	"github.com/unklstewy/ads-panel/pkg/logging"
	"github.com/unklstewy/ads-panel/pkg/render"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	limit := flag.Int("limit", 20, "Maximum number of aircraft to print")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialise logging: %v", err)
	}
	defer logger.Close()

	cal := cfg.Map.Calibration
	projector, err := coordinates.NewProjector(
		image.Pt(cfg.Display.Width, cfg.Display.Height),
		orb.Point{cal.P0.Longitude, cal.P0.Latitude},
		orb.Point{cal.P1.Longitude, cal.P1.Latitude},
	)
	if err != nil {
		log.Fatalf("Invalid calibration: %v", err)
	}

	source, database, err := panel.OpenSource(cfg, projector, logger.Logger)
	if err != nil {
		log.Fatalf("Failed to open telemetry source: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	aircraft, err := source.Poll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).
			Render("Telemetry unavailable: "+err.Error()))
		os.Exit(1)
	}

	center := projector.Center()
	fmt.Printf("%s: %d aircraft in %v (map centre %.4f, %.4f)\n\n",
		cfg.Telemetry.Source, len(aircraft), time.Since(start).Round(time.Millisecond),
		center.Latitude, center.Longitude)

	printAircraft(aircraft, projector, render.DefaultRamp(), center, *limit)
}

// printAircraft writes one line per aircraft with a swatch of its sprite colour.
func printAircraft(aircraft []adsb.Aircraft, projector *coordinates.Projector, ramp *render.Ramp, center coordinates.Geographic, limit int) {
	screen := projector.Screen()
	header := lipgloss.NewStyle().Bold(true).Underline(true)
	fmt.Println(header.Render(fmt.Sprintf("%-8s %-9s %7s %5s %11s %9s %-3s", "ICAO", "CALLSIGN", "ALT", "HDG", "PIXEL", "RANGE", "DIR")))

	shown := 0
	for _, ac := range aircraft {
		if !ac.Valid() {
			continue
		}
		if shown == limit {
			fmt.Printf("\n... and more\n")
			break
		}
		shown++

		pos := coordinates.Geographic{Latitude: *ac.Latitude, Longitude: *ac.Longitude}
		pt := projector.Project(pos.Latitude, pos.Longitude)
		c := ramp.Color(ac.AltitudeFt())
		swatch := lipgloss.NewStyle().
			Background(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))).
			Render("  ")

		pixel := fmt.Sprintf("%d,%d", pt.X, pt.Y)
		if pt.X < 0 || pt.Y < 0 || pt.X >= screen.X || pt.Y >= screen.Y {
			pixel += "*"
		}

		fmt.Printf("%-8s %-9s %7.0f %5.0f %11s %7.1fnm %-3s %s\n",
			ac.ICAO, ac.Callsign, ac.AltitudeFt(), ac.Heading(), pixel,
			coordinates.DistanceNauticalMiles(center, pos),
			cardinal(coordinates.Bearing(center, pos)), swatch)
	}
	if shown == 0 {
		fmt.Println("(no aircraft with a position)")
	}
}

// cardinal converts a bearing in degrees to a 16-point compass direction.
func cardinal(bearing float64) string {
	directions := []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	index := int((coordinates.NormalizeAzimuth(bearing) + 11.25) / 22.5)
	return directions[index%16]
}
