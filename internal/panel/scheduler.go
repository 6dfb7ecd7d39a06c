package panel

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"golang.org/x/image/draw"

	"github.com/unklstewy/ads-panel/internal/display"
	"github.com/unklstewy/ads-panel/pkg/adsb"
	"github.com/unklstewy/ads-panel/pkg/render"
)

// Options are the collaborators a Scheduler drives.
type Options struct {
	Scene      *render.Scene
	Sprites    *render.SpriteSet
	ErrorLayer *render.Layer
	Source     adsb.Source
	Sink       display.Sink

	// Interval is the target time between tick starts
	Interval time.Duration

	Logger *slog.Logger
}

// Scheduler runs the panel loop: poll telemetry, update the scene, render,
// present. Ticks never overlap; it is meant to be driven from one goroutine.
type Scheduler struct {
	scene      *render.Scene
	sprites    *render.SpriteSet
	errorLayer *render.Layer
	source     adsb.Source
	sink       display.Sink
	interval   time.Duration
	logger     *slog.Logger

	// available is nil until the first poll, then the last poll outcome
	available *bool

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewScheduler creates a scheduler. Scene, Sprites, ErrorLayer, Source and
// Sink are required.
func NewScheduler(opts Options) (*Scheduler, error) {
	switch {
	case opts.Scene == nil:
		return nil, errors.New("scheduler needs a scene")
	case opts.Sprites == nil:
		return nil, errors.New("scheduler needs a sprite set")
	case opts.ErrorLayer == nil:
		return nil, errors.New("scheduler needs an error layer")
	case opts.Source == nil:
		return nil, errors.New("scheduler needs a telemetry source")
	case opts.Sink == nil:
		return nil, errors.New("scheduler needs a display sink")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scene:      opts.Scene,
		sprites:    opts.Sprites,
		errorLayer: opts.ErrorLayer,
		source:     opts.Source,
		sink:       opts.Sink,
		interval:   opts.Interval,
		logger:     logger.With("component", "scheduler"),
		now:        time.Now,
		after:      time.After,
	}, nil
}

// Run ticks until ctx is cancelled, sleeping whatever is left of the
// interval after each tick. A tick that overruns starts the next one
// immediately. Present failures are logged and the loop carries on.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting render loop", slog.Duration("interval", s.interval))

	for {
		if ctx.Err() != nil {
			s.logger.Info("Render loop stopped")
			return nil
		}

		start := s.now()
		if err := s.Tick(ctx); err != nil {
			s.logger.Warn("Failed to present frame", slog.Any("error", err))
		}

		wait := max(s.interval-s.now().Sub(start), 0)
		select {
		case <-ctx.Done():
		case <-s.after(wait):
		}
	}
}

// Tick runs one iteration of the loop and returns the sink's error, if any.
func (s *Scheduler) Tick(ctx context.Context) error {
	start := s.now()

	aircraft, pollErr := s.source.Poll(ctx)
	s.noteAvailability(pollErr)

	frame := s.compose(aircraft, pollErr)

	if size := s.sink.Size(); frame.Bounds().Size() != size {
		scaled := image.NewRGBA(image.Rectangle{Max: size})
		draw.BiLinear.Scale(scaled, scaled.Bounds(), frame, frame.Bounds(), draw.Src, nil)
		frame = scaled
	}

	err := s.sink.Present(frame)

	s.logger.Debug("Tick",
		slog.Int("aircraft", len(aircraft)),
		slog.Int("sprites", s.sprites.Len()),
		slog.Bool("available", pollErr == nil),
		slog.Duration("took", s.now().Sub(start)))

	return err
}

// compose updates the scene for this poll and renders it. A panic while
// updating or rendering degrades the tick to the error banner alone.
func (s *Scheduler) compose(aircraft []adsb.Aircraft, pollErr error) (frame *image.RGBA) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic during tick", slog.Any("panic", r))
			frame = s.degrade()
		}
	}()

	if pollErr != nil {
		s.scene.Add(s.errorLayer)
		s.sprites.Clear()
	} else {
		s.scene.Remove(s.errorLayer)
		s.sprites.Update(aircraft)
	}

	return s.scene.Render()
}

// degrade drops all sprites, shows the banner and renders again. If that
// fails as well the frame is left transparent.
func (s *Scheduler) degrade() (frame *image.RGBA) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic rendering fallback frame", slog.Any("panic", r))
			frame = image.NewRGBA(image.Rectangle{Max: s.scene.Size()})
		}
	}()

	s.sprites.Clear()
	s.scene.Add(s.errorLayer)
	return s.scene.Render()
}

// noteAvailability logs telemetry state changes, not every failed poll.
func (s *Scheduler) noteAvailability(err error) {
	ok := err == nil
	if s.available != nil && *s.available == ok {
		return
	}
	if ok {
		s.logger.Info("Telemetry available")
	} else {
		s.logger.Warn("Telemetry unavailable", slog.Any("error", err))
	}
	s.available = &ok
}
