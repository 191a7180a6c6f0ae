package socks5

import "strconv"

// State is a step of the client handshake. A successful handshake moves
// through every state except AuthFailed and ConnectRejected, skipping
// Authenticated when no credentials were offered.
type State uint8

const (
	Init State = iota
	GreetingSent
	MethodChosen
	Authenticated
	AuthFailed
	ConnectRequested
	ConnectGranted
	ConnectRejected
	BoundAddressRead
	Established
)

var stateNames = [...]string{
	Init:             "init",
	GreetingSent:     "greeting-sent",
	MethodChosen:     "method-chosen",
	Authenticated:    "authenticated",
	AuthFailed:       "auth-failed",
	ConnectRequested: "connect-requested",
	ConnectGranted:   "connect-granted",
	ConnectRejected:  "connect-rejected",
	BoundAddressRead: "bound-address-read",
	Established:      "established",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}
