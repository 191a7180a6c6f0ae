package dialer

import (
	"context"
	"net"
)

// Dialer mirrors the net.Dialer interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// New returns a Dialer that connects directly, trying every address a host
// resolves to.
func New(cfg Config) (*Direct, error) {
	control, err := controlFunc(cfg.Interface)
	if err != nil {
		return nil, err
	}
	return &Direct{cfg: cfg, control: control}, nil
}
