// Package scl is the serial console line to the PDP-11.
//
// Reads happen on a goroutine feeding a buffered channel so that the protocol
// loop can poll for characters without blocking.
package scl

import (
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const rxBufferSize = 1024

// Port is an open console line.
type Port struct {
	name string
	rwc  io.ReadWriteCloser

	rx   chan byte
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

// Open opens the serial device at path with the given line setting.
func Open(path string, cfg Config) (*Port, error) {
	port, err := serial.Open(path, cfg.Mode())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	log.Infof("opened console line %s at %s", path, cfg)
	return newPort(path, port), nil
}

func newPort(name string, rwc io.ReadWriteCloser) *Port {
	p := &Port{
		name: name,
		rwc:  rwc,
		rx:   make(chan byte, rxBufferSize),
		done: make(chan struct{}),
	}
	go p.reader()
	return p
}

func (p *Port) reader() {
	defer close(p.rx)
	buf := make([]byte, 64)
	for {
		n, err := p.rwc.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
			case <-p.done:
				return
			}
		}
		if err != nil {
			select {
			case <-p.done:
			default:
				p.setErr(err)
				log.Warnf("console line %s: %v", p.name, err)
			}
			return
		}
	}
}

func (p *Port) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Err returns the error that stopped the reader, if any.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Name returns the device path.
func (p *Port) Name() string { return p.name }

// TryRead returns a received character without waiting.
func (p *Port) TryRead() (byte, bool) {
	select {
	case b, ok := <-p.rx:
		return b, ok
	default:
		return 0, false
	}
}

// Write sends p to the console.
func (p *Port) Write(b []byte) (int, error) {
	return p.rwc.Write(b)
}

// Close stops the reader and closes the device.
func (p *Port) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.rwc.Close()
	})
	return err
}

// ListPorts returns the serial devices present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}
