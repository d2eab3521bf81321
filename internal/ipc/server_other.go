//go:build !linux && !darwin

package ipc

import "net"

// GetPeerCredentials is not available on this platform; the server falls
// back to its own user with read-write permission.
func GetPeerCredentials(conn net.Conn) (*PeerCredentials, error) {
	return nil, errPeerCredUnsupported
}
