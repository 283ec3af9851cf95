// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// ErrNoFix is returned when the tracker sends no frame within the start
// timeout.
var ErrNoFix = errors.New("tracker: no frame received")

// Opener opens the serial port. serial.Open satisfies it.
type Opener func(serial.OpenOptions) (io.ReadWriteCloser, error)

// Options configure a SerialSource.
type Options struct {
	PortName     string
	BaudRate     uint
	StartTimeout time.Duration
	// StopTimeout bounds how long Stop waits for the reader. A blocking
	// port read is not interrupted by Close, so a silent tracker would
	// otherwise hold Stop forever.
	StopTimeout time.Duration

	Open   Opener
	Clock  clock.Clock
	Logger *zap.SugaredLogger
}

// SerialSource keeps the most recent frame read from the tracker. A
// background goroutine reads the port; Poll only copies the latest frame.
type SerialSource struct {
	opts Options
	log  *zap.SugaredLogger

	port io.ReadWriteCloser
	done chan struct{}

	mu       sync.Mutex
	latest   pose.Sample
	have     bool
	readErr  error
	stopping bool
	first    chan struct{}
	bad      int
}

// NewSerialSource creates a source that is not yet connected.
func NewSerialSource(opts Options) *SerialSource {
	if opts.Open == nil {
		opts.Open = serial.Open
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 3 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = time.Second
	}
	return &SerialSource{opts: opts, log: opts.Logger}
}

// Start opens the port and waits until the first frame arrives.
func (s *SerialSource) Start(ctx context.Context) error {
	serialOpts := serial.OpenOptions{
		PortName:              s.opts.PortName,
		BaudRate:              s.opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := s.opts.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("tracker: open %s: %w", s.opts.PortName, err)
	}
	s.log.Infof("tracker serial port opened on %s at %d baud", s.opts.PortName, s.opts.BaudRate)

	s.port = port
	s.done = make(chan struct{})
	s.first = make(chan struct{})
	go s.readLoop()

	select {
	case <-s.first:
		return nil
	case <-s.done:
		err := s.Err()
		s.Stop()
		if err == nil {
			err = io.EOF
		}
		return fmt.Errorf("tracker: port closed before first frame: %w", err)
	case <-s.opts.Clock.After(s.opts.StartTimeout):
		s.Stop()
		return fmt.Errorf("%w within %v on %s", ErrNoFix, s.opts.StartTimeout, s.opts.PortName)
	case <-ctx.Done():
		s.Stop()
		return ctx.Err()
	}
}

// Poll returns the latest frame, or the error that ended the reader.
func (s *SerialSource) Poll() (pose.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return pose.Sample{}, s.readErr
	}
	if !s.have {
		return pose.Sample{}, ErrNoFix
	}
	return s.latest, nil
}

// Err returns the error that stopped the reader, if any.
func (s *SerialSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// BadSentences returns how many lines could not be parsed.
func (s *SerialSource) BadSentences() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bad
}

// Stop closes the port and waits up to StopTimeout for the reader to exit.
// A reader still blocked after that is abandoned; it exits on its next read.
func (s *SerialSource) Stop() error {
	s.mu.Lock()
	if s.stopping || s.port == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	err := s.port.Close()
	if err != nil {
		err = fmt.Errorf("tracker: close %s: %w", s.opts.PortName, err)
	}

	select {
	case <-s.done:
	case <-s.opts.Clock.After(s.opts.StopTimeout):
		s.log.Warnf("tracker reader on %s still blocked %v after close, abandoning it", s.opts.PortName, s.opts.StopTimeout)
		err = multierr.Append(err, fmt.Errorf("tracker: reader on %s did not exit within %v", s.opts.PortName, s.opts.StopTimeout))
	}
	return err
}

func (s *SerialSource) readLoop() {
	defer close(s.done)

	parser := newSentenceParser()
	reader := bufio.NewReader(s.port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			s.mu.Lock()
			if !s.stopping {
				s.readErr = fmt.Errorf("tracker: read %s: %w", s.opts.PortName, err)
				s.log.Warnf("tracker read error: %v", err)
			}
			s.mu.Unlock()
			return
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := parser.Parse(line)
		if err != nil {
			s.mu.Lock()
			s.bad++
			s.mu.Unlock()
			s.log.Debugf("tracker parse error: %v (line: %q)", err, line)
			continue
		}
		m, ok := sentence.(HTRK)
		if !ok {
			continue
		}

		s.mu.Lock()
		s.latest = m.Sample()
		if !s.have {
			s.have = true
			close(s.first)
		}
		s.mu.Unlock()
	}
}
