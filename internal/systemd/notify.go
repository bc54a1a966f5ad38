// Package systemd reports daemon state to the service manager.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd (no NOTIFY_SOCKET)
// every call is a no-op.
type Notifier struct {
	logger   *slog.Logger
	notify   func(unsetEnvironment bool, state string) (bool, error)
	watchdog func(unsetEnvironment bool) (time.Duration, error)
}

// NewNotifier creates a notifier using the process environment.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger:   logger,
		notify:   daemon.SdNotify,
		watchdog: daemon.SdWatchdogEnabled,
	}
}

// Ready tells systemd the daemon is serving.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd the daemon is shutting down.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// RunWatchdog pings the watchdog at half the interval systemd asked for,
// as long as check succeeds, until ctx is done. It returns at once when no
// watchdog is configured. A failing check withholds the ping so systemd
// restarts a wedged daemon.
func (n *Notifier) RunWatchdog(ctx context.Context, check func(context.Context) error) error {
	interval, err := n.watchdog(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog settings", "error", err)
		return nil
	}
	if interval <= 0 {
		return nil
	}

	period := interval / 2
	n.logger.Info("Watchdog enabled", "interval", interval)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, period)
			checkErr := check(checkCtx)
			cancel()
			if checkErr != nil {
				n.logger.Error("Health check failed, withholding watchdog ping", "error", checkErr)
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
