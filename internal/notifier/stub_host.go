//go:build !linux

package notifier

import "go.uber.org/zap"

// NewHost returns a no-op host on platforms without desktop
// notifications.
func NewHost(log *zap.Logger) (Host, error) {
	log.Info("desktop notifications not supported on this platform")
	return newStubHost(), nil
}
