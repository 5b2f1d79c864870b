package notifier

// stubHost is used when D-Bus is unavailable and on platforms without
// desktop notifications.
type stubHost struct {
	actions chan ActionEvent
	closed  chan uint32
}

func newStubHost() *stubHost {
	return &stubHost{
		actions: make(chan ActionEvent),
		closed:  make(chan uint32),
	}
}

func (s *stubHost) Post(_ Notification) (uint32, error) { return 0, nil }
func (s *stubHost) Dismiss(_ uint32) error              { return nil }
func (s *stubHost) Actions() <-chan ActionEvent         { return s.actions }
func (s *stubHost) Closed() <-chan uint32               { return s.closed }
func (s *stubHost) Close() error                        { return nil }

// Verify stubHost implements Host at compile time.
var _ Host = (*stubHost)(nil)
