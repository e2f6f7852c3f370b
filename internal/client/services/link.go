package services

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
)

// LinkSignals receives local network-link changes. Monitor implements it.
type LinkSignals interface {
	LinkDown()
	LinkUp()
}

// LinkWatcher polls the host's network interfaces and reports when the
// register loses or regains a usable link (an up, non-loopback interface).
// It only produces signals; reachability of the backend stays with Monitor.
type LinkWatcher struct {
	signals  LinkSignals
	log      logging.Logger
	interval time.Duration

	// interfaces is replaced in tests.
	interfaces func() ([]net.Interface, error)
}

func NewLinkWatcher(s LinkSignals, log logging.Logger, interval time.Duration) *LinkWatcher {
	return &LinkWatcher{
		signals:    s,
		log:        log,
		interval:   interval,
		interfaces: net.Interfaces,
	}
}

// Run checks the link every interval until ctx is done. A non-positive
// interval disables the watcher.
func (w *LinkWatcher) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	up, known := false, false
	for {
		now, err := w.linkUp()
		switch {
		case err != nil:
			w.log.Debug(ctx, "list interfaces failed", "error", err)
		case !known || now != up:
			if now {
				// the first observation of a live link is not a change
				if known {
					w.log.Info(ctx, "network link up")
					w.signals.LinkUp()
				}
			} else {
				w.log.Warn(ctx, "network link down")
				w.signals.LinkDown()
			}
			up, known = now, true
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *LinkWatcher) linkUp() (bool, error) {
	ifaces, err := w.interfaces()
	if err != nil {
		return false, err
	}
	for _, i := range ifaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 {
			return true, nil
		}
	}
	return false, nil
}
