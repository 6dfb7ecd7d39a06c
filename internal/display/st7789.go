package display

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/unklstewy/ads-panel/pkg/config"
)

// ST7789 commands
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
)

// colmod16 selects 16 bits per pixel, RGB565
const colmod16 = 0x05

// maxTx is the largest single SPI write; spidev's default bufsiz
const maxTx = 4096

// spiConn is the part of spi.Conn the driver uses.
type spiConn interface {
	Tx(w, r []byte) error
}

// outPin is the part of gpio.PinIO the driver uses.
type outPin interface {
	Out(l gpio.Level) error
}

// ST7789 drives an ST7789 TFT over SPI, such as the 240x240 1.3" panels
// sold as Raspberry Pi HATs.
type ST7789 struct {
	conn spiConn
	port io.Closer

	dc        outPin
	reset     outPin // optional
	backlight outPin // optional

	size     image.Point
	offset   image.Point
	rotation int
	invert   bool

	// buf holds one RGB565 frame
	buf []byte

	sleep  func(time.Duration)
	logger *slog.Logger
}

// OpenST7789 initializes the periph host drivers, opens the SPI port and
// GPIO pins named in cfg and brings the panel up.
func OpenST7789(cfg config.DisplayConfig, logger *slog.Logger) (*ST7789, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", cfg.SPIPort, err)
	}

	conn, err := port.Connect(physic.Frequency(cfg.SPISpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", cfg.SPIPort, err)
	}

	pin := func(name string, required bool) (outPin, error) {
		if name == "" {
			if required {
				return nil, errors.New("pin name required")
			}
			return nil, nil
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown GPIO %s", name)
		}
		return p, nil
	}

	dc, err := pin(cfg.DCPin, true)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to open DC pin: %w", err)
	}
	reset, err := pin(cfg.ResetPin, false)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to open reset pin: %w", err)
	}
	backlight, err := pin(cfg.BacklightPin, false)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to open backlight pin: %w", err)
	}

	d := newST7789(conn, dc, reset, backlight, cfg, logger)
	d.port = port
	d.sleep = time.Sleep

	if err := d.init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}

	logger.Info("ST7789 display ready",
		slog.String("port", cfg.SPIPort),
		slog.Int64("speed_hz", cfg.SPISpeedHz),
		slog.Int("rotation", cfg.Rotation))
	return d, nil
}

func newST7789(conn spiConn, dc, reset, backlight outPin, cfg config.DisplayConfig, logger *slog.Logger) *ST7789 {
	return &ST7789{
		conn:      conn,
		dc:        dc,
		reset:     reset,
		backlight: backlight,
		size:      image.Pt(cfg.Width, cfg.Height),
		offset:    image.Pt(cfg.OffsetLeft, cfg.OffsetTop),
		rotation:  cfg.Rotation,
		invert:    cfg.Invert,
		buf:       make([]byte, cfg.Width*cfg.Height*2),
		sleep:     func(time.Duration) {},
		logger:    logger,
	}
}

// madctl returns the memory access control byte for a rotation in degrees.
func madctl(rotation int) byte {
	switch ((rotation % 360) + 360) % 360 {
	case 90:
		return 0x60 // MX | MV
	case 180:
		return 0xC0 // MY | MX
	case 270:
		return 0xA0 // MY | MV
	default:
		return 0x00
	}
}

func (d *ST7789) init() error {
	if d.reset != nil {
		for _, step := range []struct {
			level gpio.Level
			wait  time.Duration
		}{
			{gpio.High, 10 * time.Millisecond},
			{gpio.Low, 10 * time.Millisecond},
			{gpio.High, 120 * time.Millisecond},
		} {
			if err := d.reset.Out(step.level); err != nil {
				return fmt.Errorf("failed to drive reset pin: %w", err)
			}
			d.sleep(step.wait)
		}
	}

	if err := d.command(cmdSWRESET); err != nil {
		return err
	}
	d.sleep(150 * time.Millisecond)

	if err := d.command(cmdSLPOUT); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)

	inv := byte(cmdINVOFF)
	if d.invert {
		inv = cmdINVON
	}

	for _, c := range []struct {
		cmd  byte
		data []byte
	}{
		{cmdCOLMOD, []byte{colmod16}},
		{cmdMADCTL, []byte{madctl(d.rotation)}},
		{inv, nil},
		{cmdNORON, nil},
		{cmdDISPON, nil},
	} {
		if err := d.command(c.cmd, c.data...); err != nil {
			return err
		}
	}
	d.sleep(10 * time.Millisecond)

	if d.backlight != nil {
		if err := d.backlight.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to switch backlight on: %w", err)
		}
	}
	return nil
}

// command sends cmd with DC low, then its parameters with DC high.
func (d *ST7789) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to drive DC pin: %w", err)
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("failed to send command 0x%02X: %w", cmd, err)
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

// data sends bytes with DC high, split into SPI-sized writes.
func (d *ST7789) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to drive DC pin: %w", err)
	}
	for len(b) > 0 {
		n := min(len(b), maxTx)
		if err := d.conn.Tx(b[:n], nil); err != nil {
			return fmt.Errorf("failed to send data: %w", err)
		}
		b = b[n:]
	}
	return nil
}

// Size returns the panel resolution.
func (d *ST7789) Size() image.Point {
	return d.size
}

// Present converts the frame to RGB565 and writes it to the whole panel.
// Alpha is ignored; the composited frame is premultiplied, which is the
// same as blending onto black.
func (d *ST7789) Present(frame *image.RGBA) error {
	if err := checkSize(d, frame); err != nil {
		return err
	}

	toRGB565(d.buf, frame)

	x0, y0 := d.offset.X, d.offset.Y
	x1, y1 := x0+d.size.X-1, y0+d.size.Y-1
	if err := d.command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	if err := d.command(cmdRAMWR); err != nil {
		return err
	}
	return d.data(d.buf)
}

// Close turns the panel and backlight off and releases the SPI port.
func (d *ST7789) Close() error {
	var errs []error
	if err := d.command(cmdDISPOFF); err != nil {
		errs = append(errs, err)
	}
	if d.backlight != nil {
		if err := d.backlight.Out(gpio.Low); err != nil {
			errs = append(errs, err)
		}
	}
	if d.port != nil {
		if err := d.port.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// toRGB565 packs frame into dst as big-endian RGB565.
func toRGB565(dst []byte, frame *image.RGBA) {
	b := frame.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			v := uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(bl>>3)
			dst[i] = byte(v >> 8)
			dst[i+1] = byte(v)
			i += 2
		}
	}
}
