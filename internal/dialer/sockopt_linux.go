//go:build linux

package dialer

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlFunc binds sockets to iface with SO_BINDTODEVICE.
func controlFunc(iface string) (func(network, address string, c syscall.RawConn) error, error) {
	if iface == "" {
		return nil, nil
	}
	return func(_, _ string, c syscall.RawConn) error {
		var ctrlErr error
		err := c.Control(func(fd uintptr) {
			ctrlErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, iface)
		})
		if err != nil {
			return err
		}
		return ctrlErr
	}, nil
}
