//go:build !linux

package dialer

import (
	"errors"
	"syscall"
)

func controlFunc(iface string) (func(network, address string, c syscall.RawConn) error, error) {
	if iface == "" {
		return nil, nil
	}
	return nil, errors.New("binding to an interface is only supported on linux")
}
