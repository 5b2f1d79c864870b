package notifier

import "go.uber.org/zap"

// Foreground marks the daemon busy while playback runs. A promoted
// daemon should not be reaped by session managers; demoting with
// remove also takes the notification down with it.
type Foreground interface {
	Promote()
	Demote(remove bool)
}

// logForeground is the default implementation: it only records the
// transitions. Platform integrations (systemd inhibitors, power
// management) can replace it.
type logForeground struct {
	log      *zap.Logger
	promoted bool
}

// NewForeground creates the logging Foreground.
func NewForeground(log *zap.Logger) Foreground {
	return &logForeground{log: log}
}

func (f *logForeground) Promote() {
	if f.promoted {
		return
	}
	f.promoted = true
	f.log.Info("promoted to foreground")
}

func (f *logForeground) Demote(remove bool) {
	if !f.promoted {
		return
	}
	f.promoted = false
	f.log.Info("demoted from foreground", zap.Bool("remove", remove))
}
