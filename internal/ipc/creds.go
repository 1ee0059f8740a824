package ipc

import (
	"context"
	"net"

	"google.golang.org/grpc/credentials"
)

const peerCredAuthType = "peercred"

// peerCredentials is a plaintext transport that records the uid of the
// connecting process during the server handshake. The uid is checked per call
// so a rejected peer gets a PermissionDenied status instead of a reset.
type peerCredentials struct{}

type peerAuthInfo struct {
	credentials.CommonAuthInfo
	uid int
	err error
}

func (peerAuthInfo) AuthType() string { return peerCredAuthType }

func (peerCredentials) ClientHandshake(_ context.Context, _ string, conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	return conn, peerAuthInfo{
		CommonAuthInfo: credentials.CommonAuthInfo{SecurityLevel: credentials.NoSecurity},
		uid:            -1,
	}, nil
}

func (peerCredentials) ServerHandshake(conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	uid, err := peerUID(conn)
	return conn, peerAuthInfo{
		CommonAuthInfo: credentials.CommonAuthInfo{SecurityLevel: credentials.NoSecurity},
		uid:            uid,
		err:            err,
	}, nil
}

func (peerCredentials) Info() credentials.ProtocolInfo {
	return credentials.ProtocolInfo{SecurityProtocol: peerCredAuthType}
}

func (c peerCredentials) Clone() credentials.TransportCredentials { return c }

func (peerCredentials) OverrideServerName(string) error { return nil }
