// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display shows the capture status on a 128x64 SSD1306 OLED.
package display

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/headtrack_logger/internal/status"
)

const (
	width      = 128
	height     = 64
	lineHeight = 13
)

// Screen is the part of *ssd1306.Dev the panel draws on.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// Panel periodically renders the status board on a screen.
type Panel struct {
	screen Screen
	bus    i2c.BusCloser
	log    *zap.SugaredLogger
}

// Open initializes periph, opens the I2C bus (empty name picks the first
// one) and the SSD1306 on it, which answers at 0x3C.
func Open(busName string, logger *zap.SugaredLogger) (*Panel, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	logger.Infof("display initialized on %s", bus)

	return &Panel{screen: dev, bus: bus, log: logger}, nil
}

// NewPanel wraps an already opened screen.
func NewPanel(screen Screen, logger *zap.SugaredLogger) *Panel {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Panel{screen: screen, log: logger}
}

// Run redraws the board every interval until ctx is done, then blanks the
// screen and releases the bus.
func (p *Panel) Run(ctx context.Context, board *status.Board, clk clock.Clock, interval time.Duration) error {
	if clk == nil {
		clk = clock.New()
	}
	defer p.close()

	if err := p.screen.Draw(p.screen.Bounds(), splash(), image.Point{}); err != nil {
		p.log.Warnf("error showing splash: %v", err)
	}

	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.screen.Draw(p.screen.Bounds(), Render(board.Snapshot()), image.Point{}); err != nil {
				p.log.Debugf("error updating display: %v", err)
			}
		}
	}
}

func (p *Panel) close() {
	if err := p.screen.Halt(); err != nil {
		p.log.Debugf("error halting display: %v", err)
	}
	if p.bus != nil {
		p.bus.Close()
	}
}

// Render draws a snapshot as four text lines.
func Render(s status.Snapshot) *image1bit.VerticalLSB {
	if !s.HasSample {
		return drawLines("Head tracker", "Waiting...")
	}

	head := fmt.Sprintf("REC %4.0fHz", s.Rate)
	if s.Stopped {
		head = "STOPPED"
	}
	return drawLines(
		head,
		fmt.Sprintf("R%6.1f P%6.1f", s.Sample.Roll, s.Sample.Pitch),
		fmt.Sprintf("Y%6.1f F%d", s.Sample.Yaw, s.Sample.FrameID),
		fmt.Sprintf("L%d M%d", s.Stats.Logged, s.Stats.Missed),
	)
}

func splash() *image1bit.VerticalLSB {
	return drawLines("headtrack", "logger")
}

func drawLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}
