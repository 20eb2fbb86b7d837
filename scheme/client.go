package scheme

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// Entry describes one child of a directory listing or a DescribePath result.
type Entry struct {
	Name string
	Type string
}

// Client is the scheme façade: MakeDirectory/RemoveDirectory/
// ListDirectory/DescribePath/ModifyPermissions, all plain unary calls
// riding the shared Connection Pool channel and Auth Interceptor.
type Client struct {
	conn   *grpc.ClientConn
	prefix string
}

// New wraps conn for scheme calls. methodPrefix is the gRPC method
// path prefix, e.g. "/Ydb.Scheme.V1.SchemeService/".
func New(conn *grpc.ClientConn, methodPrefix string) *Client {
	return &Client{conn: conn, prefix: methodPrefix}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, c.prefix+method, req, resp, grpc.CallContentSubtype(xwire.CodecName))
}

// MakeDirectory creates path, including any missing parents.
func (c *Client) MakeDirectory(ctx context.Context, path string) error {
	var resp xwire.MakeDirectoryResponse
	if err := c.invoke(ctx, "MakeDirectory", &xwire.MakeDirectoryRequest{Path: path}, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// RemoveDirectory removes an empty directory at path.
func (c *Client) RemoveDirectory(ctx context.Context, path string) error {
	var resp xwire.RemoveDirectoryResponse
	if err := c.invoke(ctx, "RemoveDirectory", &xwire.RemoveDirectoryRequest{Path: path}, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// ListDirectory lists path's immediate children.
func (c *Client) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	var resp xwire.ListDirectoryResponse
	if err := c.invoke(ctx, "ListDirectory", &xwire.ListDirectoryRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.OperationStatus); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(resp.Children))
	for _, c := range resp.Children {
		out = append(out, Entry{Name: c.Name, Type: c.Type})
	}
	return out, nil
}

// DescribePath reads path's own scheme entry.
func (c *Client) DescribePath(ctx context.Context, path string) (Entry, error) {
	var resp xwire.DescribePathResponse
	if err := c.invoke(ctx, "DescribePath", &xwire.DescribePathRequest{Path: path}, &resp); err != nil {
		return Entry{}, err
	}
	if err := statusError(resp.OperationStatus); err != nil {
		return Entry{}, err
	}
	return Entry{Name: resp.Entry.Name, Type: resp.Entry.Type}, nil
}

// Permission is one ACL grant/revoke entry.
type Permission struct {
	Subject string
	Rights  []string
}

// ModifyPermissions grants and/or revokes ACL entries on path. clear
// wipes the existing ACL before applying grant.
func (c *Client) ModifyPermissions(ctx context.Context, path string, grant, revoke []Permission, clear bool) error {
	req := xwire.ModifyPermissionsRequest{Path: path, Clear: clear}
	for _, g := range grant {
		req.Grant = append(req.Grant, xwire.Permission{Subject: g.Subject, Rights: g.Rights})
	}
	for _, r := range revoke {
		req.Revoke = append(req.Revoke, xwire.Permission{Subject: r.Subject, Rights: r.Rights})
	}

	var resp xwire.ModifyPermissionsResponse
	if err := c.invoke(ctx, "ModifyPermissions", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}
