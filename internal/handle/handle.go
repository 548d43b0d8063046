// Package handle classifies values that can travel over a process channel as
// transferable endpoints rather than as plain data.
//
// The set of transferable types is closed. Adding a transport means adding a
// Kind/Transport pair and a case to Classify.
package handle

import (
	"net"
	"os"
)

// Kind is the role of a transferable endpoint.
type Kind int

const (
	KindNone Kind = iota
	// KindSocket is a connected stream socket.
	KindSocket
	// KindListener is a listening server endpoint.
	KindListener
	// KindDatagram is a datagram socket.
	KindDatagram
	// KindPipe is a raw pipe or file descriptor.
	KindPipe
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindListener:
		return "listener"
	case KindDatagram:
		return "datagram"
	case KindPipe:
		return "pipe"
	default:
		return "none"
	}
}

// Transport is the underlying transport family of an endpoint.
type Transport int

const (
	TransportNone Transport = iota
	TransportTCP
	TransportUnix
	TransportUDP
	TransportFile
)

func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportUnix:
		return "unix"
	case TransportUDP:
		return "udp"
	case TransportFile:
		return "file"
	default:
		return "none"
	}
}

// Descriptor describes a classified endpoint.
type Descriptor struct {
	Kind      Kind
	Transport Transport
}

func (d Descriptor) String() string {
	return d.Kind.String() + "/" + d.Transport.String()
}

// Classify reports whether v is a transferable endpoint and, if so, what it is.
// Nil values, including typed nil pointers, are never transferable.
func Classify(v any) (Descriptor, bool) {
	switch h := v.(type) {
	case *net.TCPConn:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindSocket, Transport: TransportTCP}, true
	case *net.UnixConn:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindSocket, Transport: TransportUnix}, true
	case *net.TCPListener:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindListener, Transport: TransportTCP}, true
	case *net.UnixListener:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindListener, Transport: TransportUnix}, true
	case *net.UDPConn:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindDatagram, Transport: TransportUDP}, true
	case *os.File:
		if h == nil {
			return Descriptor{}, false
		}
		return Descriptor{Kind: KindPipe, Transport: TransportFile}, true
	default:
		return Descriptor{}, false
	}
}

// IsTransferable reports whether v can be sent as a handle.
func IsTransferable(v any) bool {
	_, ok := Classify(v)
	return ok
}
