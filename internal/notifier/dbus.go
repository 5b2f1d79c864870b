//go:build linux

package notifier

import (
	"image"
	"image/draw"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	appName      = "Chime"
	desktopEntry = "chime"
)

// dbusHost posts notifications over the session bus. Returned action
// and close events carry the notification id; the manager matches them
// against the id it owns.
type dbusHost struct {
	log     *zap.Logger
	conn    *dbus.Conn
	obj     dbus.BusObject
	actions chan ActionEvent
	closed  chan uint32
	stop    chan struct{}
}

// NewHost creates a Host on the session bus. Returns a no-op host if
// D-Bus is unavailable, so the daemon still runs headless.
func NewHost(log *zap.Logger) (Host, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Warn("session bus unavailable, notifications disabled", zap.Error(err))
		return newStubHost(), nil
	}

	h := &dbusHost{
		log:     log,
		conn:    conn,
		obj:     conn.Object(dbusNotifyDest, dbusNotifyPath),
		actions: make(chan ActionEvent, 16),
		closed:  make(chan uint32, 16),
		stop:    make(chan struct{}),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
	); err != nil {
		log.Warn("cannot subscribe to notification signals", zap.Error(err))
	} else {
		signals := make(chan *dbus.Signal, 32)
		conn.Signal(signals)
		go h.dispatch(signals)
	}
	return h, nil
}

func (h *dbusHost) Post(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(1)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
		"resident":      dbus.MakeVariant(n.Ongoing),
	}
	if n.Icon != nil {
		hints["image-data"] = dbus.MakeVariant(imageData(n.Icon))
	}

	actions := make([]string, 0, len(n.Actions)*2)
	for _, a := range n.Actions {
		actions = append(actions, a.Key, a.Label)
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout)
	call := h.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		appName,
		n.ReplacesID,
		"",
		n.Title,
		n.Body,
		actions,
		hints,
		int32(0), // never expire, the manager dismisses it
	)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (h *dbusHost) Dismiss(id uint32) error {
	call := h.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

func (h *dbusHost) Actions() <-chan ActionEvent { return h.actions }
func (h *dbusHost) Closed() <-chan uint32       { return h.closed }

func (h *dbusHost) Close() error {
	close(h.stop)
	return nil
}

func (h *dbusHost) dispatch(signals <-chan *dbus.Signal) {
	for {
		select {
		case <-h.stop:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			switch sig.Name {
			case dbusNotifyInterface + ".ActionInvoked":
				if len(sig.Body) != 2 {
					continue
				}
				id, _ := sig.Body[0].(uint32)
				key, _ := sig.Body[1].(string)
				select {
				case h.actions <- ActionEvent{ID: id, Key: key}:
				default:
				}
			case dbusNotifyInterface + ".NotificationClosed":
				if len(sig.Body) < 1 {
					continue
				}
				id, _ := sig.Body[0].(uint32)
				select {
				case h.closed <- id:
				default:
				}
			}
		}
	}
}

// rawImage is the iiibiiay structure the image-data hint expects.
type rawImage struct {
	Width         int32
	Height        int32
	Stride        int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

func imageData(img image.Image) rawImage {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, img, b.Min, draw.Src)
	}
	return rawImage{
		Width:         int32(b.Dx()),
		Height:        int32(b.Dy()),
		Stride:        int32(rgba.Stride),
		HasAlpha:      true,
		BitsPerSample: 8,
		Channels:      4,
		Data:          rgba.Pix,
	}
}
