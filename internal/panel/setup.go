package panel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/unklstewy/ads-panel/internal/db"
	"github.com/unklstewy/ads-panel/internal/display"
	"github.com/unklstewy/ads-panel/pkg/adsb"
	"github.com/unklstewy/ads-panel/pkg/assets"
	"github.com/unklstewy/ads-panel/pkg/config"
	"github.com/unklstewy/ads-panel/pkg/coordinates"
	"github.com/unklstewy/ads-panel/pkg/render"
)

// SetupOptions override parts of the setup, mainly for tests.
type SetupOptions struct {
	// Source replaces the telemetry source from the config
	Source adsb.Source

	// Sink replaces the display from the config
	Sink display.Sink

	// OnQuit is passed to interactive sinks
	OnQuit func()
}

// Panel is a fully wired panel ready to run.
type Panel struct {
	Scheduler *Scheduler
	Projector *coordinates.Projector
	Scene     *render.Scene
	Sink      display.Sink

	db *db.DB
}

// Close releases the display and the database connection, if any.
func (p *Panel) Close() error {
	var errs []error
	if p.Sink != nil {
		errs = append(errs, p.Sink.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	return errors.Join(errs...)
}

// Setup validates cfg and builds every component: projection, static
// layers, sprite set, error banner, telemetry source and display sink.
// Any failure is returned as a *ConfigurationError.
func Setup(cfg *config.Config, logger *slog.Logger, opts SetupOptions) (*Panel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, configError("config", err)
	}

	size := image.Pt(cfg.Display.Width, cfg.Display.Height)
	cal := cfg.Map.Calibration
	projector, err := coordinates.NewProjector(size,
		orb.Point{cal.P0.Longitude, cal.P0.Latitude},
		orb.Point{cal.P1.Longitude, cal.P1.Latitude},
	)
	if err != nil {
		return nil, configError("calibration", err)
	}

	ramp := render.DefaultRamp()
	scene := render.NewScene(size)

	if cfg.Map.Image != "" {
		img, err := assets.LoadImage(cfg.Map.Image)
		if err != nil {
			return nil, configError("map", err)
		}
		scene.Add(render.NewStaticLayer(assets.Scale(img, size), image.Point{}))
	}

	if cfg.Legend.Enabled {
		l := cfg.Legend
		frame := image.Rect(l.X, l.Y, l.X+l.Width, l.Y+l.Height)
		scene.Add(render.NewGradientLayer(ramp, frame, l.MinAltitude, l.MaxAltitude))
	}

	icon, err := assets.LoadImage(cfg.Sprites.Icon)
	if err != nil {
		return nil, configError("sprites", err)
	}
	sprites, err := render.NewSpriteSet(scene, projector, ramp, icon, render.SpriteOptions{
		Size:        cfg.Sprites.Size,
		IconHeading: cfg.Sprites.IconHeading,
		CacheSize:   cfg.Sprites.CacheSize,
	})
	if err != nil {
		return nil, configError("sprites", err)
	}

	errorLayer, err := newErrorLayer(cfg.Banner, size)
	if err != nil {
		return nil, configError("banner", err)
	}

	p := &Panel{Projector: projector, Scene: scene}

	source := opts.Source
	if source == nil {
		source, p.db, err = OpenSource(cfg, projector, logger)
		if err != nil {
			return nil, configError("telemetry", err)
		}
	}

	p.Sink = opts.Sink
	if p.Sink == nil {
		p.Sink, err = display.Open(cfg.Display, display.Options{Logger: logger, OnQuit: opts.OnQuit})
		if err != nil {
			p.Close()
			return nil, configError("display", err)
		}
	}

	p.Scheduler, err = NewScheduler(Options{
		Scene:      scene,
		Sprites:    sprites,
		ErrorLayer: errorLayer,
		Source:     source,
		Sink:       p.Sink,
		Interval:   time.Second / time.Duration(cfg.Display.FPS),
		Logger:     logger,
	})
	if err != nil {
		p.Close()
		return nil, configError("scheduler", err)
	}

	center := projector.Center()
	logger.Info("Panel ready",
		slog.String("size", size.String()),
		slog.Int("fps", cfg.Display.FPS),
		slog.Float64("center_lat", center.Latitude),
		slog.Float64("center_lon", center.Longitude),
		slog.Int("static_layers", scene.Len()))

	return p, nil
}

// newErrorLayer renders the banner text into a strip along the bottom edge.
func newErrorLayer(cfg config.BannerConfig, screen image.Point) (*render.Layer, error) {
	face, err := assets.LoadFace(cfg.FontPath, cfg.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	c, err := colorful.Hex(cfg.Color)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()

	height := min(cfg.Height, screen.Y)
	img := assets.RenderText(cfg.Text, face, color.RGBA{r, g, b, 0xff}, image.Pt(screen.X, height))
	return render.NewErrorLayer(img, image.Pt(0, screen.Y-height)), nil
}

// OpenSource creates the telemetry source named in the config. The database
// handle is returned so the caller can close it.
func OpenSource(cfg *config.Config, projector *coordinates.Projector, logger *slog.Logger) (adsb.Source, *db.DB, error) {
	t := cfg.Telemetry
	maxAge := time.Duration(t.MaxPositionAgeSeconds * float64(time.Second))
	timeout := time.Duration(t.TimeoutSeconds * float64(time.Second))

	switch t.Source {
	case config.SourceAirplanesLive:
		center := projector.Center()
		radius := projector.CoverageRadiusNM()
		client := adsb.NewAirplanesLiveClient(t.BaseURL, timeout)
		interval := time.Duration(t.RateLimitSeconds * float64(time.Second))
		logger.Info("Using airplanes.live telemetry",
			slog.String("base_url", t.BaseURL),
			slog.Float64("radius_nm", radius),
			slog.Duration("interval", interval))
		return adsb.NewAirplanesLiveSource(client, center.Latitude, center.Longitude, radius, interval), nil, nil

	case config.SourcePostgres:
		database, err := db.Connect(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stats, err := database.GetStats(ctx); err == nil {
			logger.Info("Using collector database telemetry",
				slog.String("host", cfg.Database.Host),
				slog.Any("stats", stats))
		}
		return db.NewAircraftRepository(database, projector.Bound(), maxAge, timeout), database, nil

	default:
		logger.Info("Using dump1090 telemetry", slog.String("path", t.FilePath))
		return adsb.NewFileSource(t.FilePath, maxAge), nil, nil
	}
}
