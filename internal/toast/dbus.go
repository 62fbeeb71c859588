package toast

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify = notificationsDest + ".Notify"

	// A notification daemon that has not answered by now is treated as
	// failed so that the next provider can be tried.
	dbusCallTimeout = 2 * time.Second
)

// dbusProvider talks to the desktop's notification daemon directly over the
// session bus.
type dbusProvider struct {
	appName string
	timeout time.Duration
	notify  func(ctx context.Context, args ...interface{}) error
}

func newDbusProvider(appName string) *dbusProvider {
	return &dbusProvider{appName: appName, timeout: dbusCallTimeout, notify: sessionNotify}
}

func (p *dbusProvider) Name() string { return "dbus" }

func (p *dbusProvider) Show(title string, message string, seconds int) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	timeout := int32(LengthFor(seconds).Timeout().Milliseconds())
	return p.notify(ctx,
		p.appName,  // app_name
		uint32(0),  // replaces_id
		"",         // app_icon
		title,      // summary
		message,    // body
		[]string{}, // actions
		map[string]dbus.Variant{},
		timeout,
	)
}

// sessionNotify calls Notify on the session bus, giving up when the
// context is done.
func sessionNotify(ctx context.Context, args ...interface{}) error {
	// SessionBus returns a shared connection, it must not be closed here.
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}

	return conn.Object(notificationsDest, notificationsPath).CallWithContext(ctx, notificationsNotify, 0, args...).Err
}
