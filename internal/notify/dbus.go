package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// dbusSink talks to org.freedesktop.Notifications directly over the
// session bus. Last resort on Linux when notify-send is not installed.
type dbusSink struct{}

func (s *dbusSink) Name() string { return "dbus" }

func (s *dbusSink) Send(ctx context.Context, title, message string) error {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	if err := conn.Auth(nil); err != nil {
		return fmt.Errorf("dbus auth: %w", err)
	}
	if err := conn.Hello(); err != nil {
		return fmt.Errorf("dbus hello: %w", err)
	}

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		appName,                  // app_name
		uint32(0),                // replaces_id
		"",                       // app_icon
		title,                    // summary
		message,                  // body
		[]string{},               // actions
		map[string]dbus.Variant{}, // hints
		int32(10000),             // expire_timeout ms
	)
	if call.Err != nil {
		return fmt.Errorf("dbus notify: %w", call.Err)
	}
	return nil
}
