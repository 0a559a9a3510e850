package monitor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Link is a character line the simulator can be served on.
type Link interface {
	io.Writer
	TryRead() (byte, bool)
}

// Serve runs the simulator on link until ctx is cancelled. Traffic is logged
// at debug level, one entry per change of direction.
func (s *Sim) Serve(ctx context.Context, link Link, pollInterval time.Duration) error {
	var t transcript
	defer t.flush()

	log.Infof("console simulator serving, prompt %q", strings.TrimSpace(s.prompt))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		busy := false
		if ch, ok := link.TryRead(); ok {
			busy = true
			t.add("IN", ch)
			if _, err := s.Write([]byte{ch}); err != nil {
				return err
			}
		}
		if len(s.out) > 0 {
			busy = true
			for _, ch := range s.out {
				t.add("OUT", ch)
			}
			if _, err := link.Write(s.out); err != nil {
				return fmt.Errorf("console simulator: %w", err)
			}
			s.out = s.out[:0]
		}

		if !busy && pollInterval > 0 {
			time.Sleep(pollInterval)
		}
	}
}

// transcript groups characters by direction for logging.
type transcript struct {
	dir string
	buf strings.Builder
}

func (t *transcript) add(dir string, ch byte) {
	if dir != t.dir {
		t.flush()
		t.dir = dir
	}
	if ch < ' ' || ch > '~' {
		fmt.Fprintf(&t.buf, "\\x%02X", ch)
	} else {
		t.buf.WriteByte(ch)
	}
	if ch == '\r' || ch == '\n' {
		t.flush()
	}
}

func (t *transcript) flush() {
	if t.buf.Len() == 0 {
		return
	}
	log.WithField("dir", t.dir).Debug(t.buf.String())
	t.buf.Reset()
}
