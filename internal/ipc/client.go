package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"pkt.systems/tabstrip/internal/command"
	"pkt.systems/tabstrip/schema"
)

const defaultSendTimeout = 5 * time.Second

// ErrRejected indicates the command socket refused a command.
var ErrRejected = errors.New("command rejected")

// Client posts commands to a running tabstrip over its unix socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a command client for socketPath. The connection is made on
// first use.
func Dial(socketPath string) (*Client, error) {
	if socketPath == "" {
		return nil, errors.New("command socket path is required")
	}
	dialer := func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", addr)
	}
	conn, err := grpc.NewClient(
		"passthrough:///"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Post sends one command line and returns the canonical form the server
// queued. Refusals wrap ErrRejected.
func (c *Client) Post(ctx context.Context, line string) (string, error) {
	if c.conn == nil {
		return "", errors.New("command client not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return "", fmt.Errorf("%w: expected a single line", schema.ErrInvalidCommand)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, postMethod, wrapperspb.String(line), out); err != nil {
		return "", mapStatus(err)
	}
	return out.GetValue(), nil
}

func mapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.PermissionDenied, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	}
	return err
}

// Send dials socketPath, posts one command line and closes the connection.
func Send(ctx context.Context, socketPath, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: expected a single line", schema.ErrInvalidCommand)
	}
	client, err := Dial(socketPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	_, err = client.Post(ctx, line)
	return err
}

// SendCommand formats cmd and sends it.
func SendCommand(ctx context.Context, socketPath string, cmd schema.Command) error {
	line, err := command.Format(cmd)
	if err != nil {
		return err
	}
	return Send(ctx, socketPath, line)
}
