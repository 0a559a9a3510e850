package scl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.bug.st/serial"
)

// Line speed limits of the console interface.
const (
	MinBaudRate = 110
	MaxBaudRate = 38400
)

// DefaultConfig is the usual setting of a DL11 console line.
var DefaultConfig = Config{BaudRate: 1200, DataBits: 8, Parity: 'N', StopBits: 1}

// ErrConfig is returned for a malformed line configuration.
var ErrConfig = errors.New("invalid serial configuration")

var configPattern = regexp.MustCompile(`^(\d+)-([78])-([OEN])-([12])$`)

// Config is a serial line setting written as <baud>-<data bits>-<parity>-<stop bits>,
// e.g. 9600-8-N-1. Parity is one of N, E or O.
type Config struct {
	BaudRate int
	DataBits int
	Parity   byte
	StopBits int
}

// ParseConfig parses a line setting such as "1200-7-E-1".
func ParseConfig(s string) (Config, error) {
	m := configPattern.FindStringSubmatch(s)
	if m == nil {
		return Config{}, fmt.Errorf("%w %q: want <baud>-<7|8>-<N|E|O>-<1|2>", ErrConfig, s)
	}
	baud, err := strconv.Atoi(m[1])
	if err != nil {
		return Config{}, fmt.Errorf("%w %q: %v", ErrConfig, s, err)
	}
	if baud < MinBaudRate || baud > MaxBaudRate {
		return Config{}, fmt.Errorf("%w %q: baud rate must be between %d and %d",
			ErrConfig, s, MinBaudRate, MaxBaudRate)
	}
	return Config{
		BaudRate: baud,
		DataBits: int(m[2][0] - '0'),
		Parity:   m[3][0],
		StopBits: int(m[4][0] - '0'),
	}, nil
}

// UnmarshalText lets a Config be read from flags and configuration files.
func (c *Config) UnmarshalText(text []byte) error {
	parsed, err := ParseConfig(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText writes the configuration back in its textual form.
func (c Config) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c Config) String() string {
	return fmt.Sprintf("%d-%d-%c-%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

// Mode converts the configuration for the serial driver.
func (c Config) Mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch c.Parity {
	case 'E':
		mode.Parity = serial.EvenParity
	case 'O':
		mode.Parity = serial.OddParity
	}
	if c.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode
}
