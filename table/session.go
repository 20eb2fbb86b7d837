package table

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xretry"
	"github.com/ydbgo/ydbgo/internal/xwire"
)

var isolationMode = map[xretry.Isolation]string{
	xretry.SerializableReadWrite:      "serializable_read_write",
	xretry.OnlineReadOnly:             "online_read_only",
	xretry.OnlineReadOnlyInconsistent: "online_read_only_inconsistent",
	xretry.StaleReadOnly:              "stale_read_only",
	xretry.SnapshotReadOnly:           "snapshot_read_only",
}

// Session is a pooled server-side session. It satisfies both
// internal/xsession.Session (ID) and internal/xretry.Session
// (BeginTransaction), so one type serves both the Session Pool and
// the Transaction Runner that rides it.
type Session struct {
	conn   *grpc.ClientConn
	prefix string
	id     string
}

// ID returns the server-assigned session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) invoke(ctx context.Context, method string, req, resp any) error {
	return s.conn.Invoke(ctx, s.prefix+method, req, resp, grpc.CallContentSubtype(xwire.CodecName))
}

// createSession opens a new server-side session, used as
// internal/xsession.Create.
func createSession(conn *grpc.ClientConn, prefix string) func(ctx context.Context) (*Session, error) {
	return func(ctx context.Context) (*Session, error) {
		s := &Session{conn: conn, prefix: prefix}
		var resp xwire.CreateSessionResponse
		if err := s.invoke(ctx, "CreateSession", &xwire.CreateSessionRequest{}, &resp); err != nil {
			return nil, err
		}
		if err := statusError(resp.OperationStatus); err != nil {
			return nil, err
		}
		s.id = resp.SessionID
		return s, nil
	}
}

// destroySession tears down a server-side session, used as
// internal/xsession.Destroy. Best-effort: the session is being
// discarded either way.
func destroySession(ctx context.Context, s *Session) {
	var resp xwire.DeleteSessionResponse
	_ = s.invoke(ctx, "DeleteSession", &xwire.DeleteSessionRequest{SessionID: s.id}, &resp)
}

// keepaliveSession probes an idle session, used as internal/xsession.Keepalive.
func keepaliveSession(ctx context.Context, s *Session) error {
	var resp xwire.KeepAliveResponse
	if err := s.invoke(ctx, "KeepAlive", &xwire.KeepAliveRequest{SessionID: s.id}, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// BeginTransaction starts a transaction in mode, satisfying
// internal/xretry.Session.
func (s *Session) BeginTransaction(ctx context.Context, mode xretry.Isolation) (xretry.TxHandle, error) {
	var resp xwire.BeginTransactionResponse
	req := xwire.BeginTransactionRequest{SessionID: s.id, Mode: isolationMode[mode]}
	if err := s.invoke(ctx, "BeginTransaction", &req, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.OperationStatus); err != nil {
		return nil, err
	}
	return &TxHandle{session: s, txID: resp.TxID}, nil
}

// ExecuteSchemeQuery runs DDL text outside any transaction (spec
// §4.7's retry_execute_scheme_query).
func (s *Session) ExecuteSchemeQuery(ctx context.Context, yql string) error {
	var resp xwire.ExecuteSchemeQueryResponse
	req := xwire.ExecuteSchemeQueryRequest{SessionID: s.id, YQLText: yql}
	if err := s.invoke(ctx, "ExecuteSchemeQuery", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// BulkUpsert writes rows to table in a single non-transactional call
// (spec §4.7's retry_execute_bulk_upsert).
func (s *Session) BulkUpsert(ctx context.Context, table string, rows []any) error {
	var resp xwire.BulkUpsertResponse
	req := xwire.BulkUpsertRequest{Table: table, Rows: rows}
	if err := s.invoke(ctx, "BulkUpsert", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}
