package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xretry"
	"github.com/ydbgo/ydbgo/internal/xwire"
)

func TestClientRetryTransactionCommitsOnSuccess(t *testing.T) {
	var sessionIDs, txIDs []string
	conn, _, cleanup := newTestConn(t, map[string]tableHandlerFunc{
		"CreateSession": unaryHandler[xwire.CreateSessionRequest](xwire.CreateSessionResponse{SessionID: "sess-1"}),
		"BeginTransaction": func(stream grpc.ServerStream) error {
			var req xwire.BeginTransactionRequest
			if err := stream.RecvMsg(&req); err != nil {
				return err
			}
			sessionIDs = append(sessionIDs, req.SessionID)
			return stream.SendMsg(&xwire.BeginTransactionResponse{TxID: "tx-1"})
		},
		"ExecuteDataQuery": unaryHandler[xwire.ExecuteDataQueryRequest](xwire.ExecuteDataQueryResponse{}),
		"CommitTransaction": func(stream grpc.ServerStream) error {
			var req xwire.CommitTransactionRequest
			if err := stream.RecvMsg(&req); err != nil {
				return err
			}
			txIDs = append(txIDs, req.TxID)
			return stream.SendMsg(&xwire.CommitTransactionResponse{})
		},
		"DeleteSession": unaryHandler[xwire.DeleteSessionRequest](xwire.DeleteSessionResponse{}),
	})
	defer cleanup()

	c := NewClient(conn, "/Ydb.Table.V1.TableService/")
	defer c.Close(context.Background())

	err := c.RetryTransaction(context.Background(), xretry.Options{}, func(tx *TxHandle) error {
		if _, err := tx.Execute(context.Background(), "SELECT 1", nil); err != nil {
			return err
		}
		return tx.Commit(context.Background())
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, sessionIDs)
	assert.Equal(t, []string{"tx-1"}, txIDs)
}

func TestClientRetryTransactionRetriesOnAbortedAndSucceeds(t *testing.T) {
	attempts := 0
	conn, _, cleanup := newTestConn(t, map[string]tableHandlerFunc{
		"CreateSession": unaryHandler[xwire.CreateSessionRequest](xwire.CreateSessionResponse{SessionID: "sess-1"}),
		"BeginTransaction": unaryHandler[xwire.BeginTransactionRequest](xwire.BeginTransactionResponse{TxID: "tx-1"}),
		"ExecuteDataQuery": func(stream grpc.ServerStream) error {
			var req xwire.ExecuteDataQueryRequest
			if err := stream.RecvMsg(&req); err != nil {
				return err
			}
			attempts++
			if attempts == 1 {
				return stream.SendMsg(&xwire.ExecuteDataQueryResponse{
					OperationStatus: xwire.OperationStatus{Code: xwire.StatusAborted},
				})
			}
			return stream.SendMsg(&xwire.ExecuteDataQueryResponse{})
		},
		"CommitTransaction":   unaryHandler[xwire.CommitTransactionRequest](xwire.CommitTransactionResponse{}),
		"RollbackTransaction": unaryHandler[xwire.RollbackTransactionRequest](xwire.RollbackTransactionResponse{}),
		"DeleteSession":       unaryHandler[xwire.DeleteSessionRequest](xwire.DeleteSessionResponse{}),
	})
	defer cleanup()

	c := NewClient(conn, "/Ydb.Table.V1.TableService/")
	defer c.Close(context.Background())

	err := c.RetryTransaction(context.Background(), xretry.Options{Budget: xretry.Budget{MaxAttempts: 3}}, func(tx *TxHandle) error {
		if _, err := tx.Execute(context.Background(), "SELECT 1", nil); err != nil {
			return err
		}
		return tx.Commit(context.Background())
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestClientRetryExecuteSchemeQuerySucceeds(t *testing.T) {
	var seen xwire.ExecuteSchemeQueryRequest
	conn, _, cleanup := newTestConn(t, map[string]tableHandlerFunc{
		"CreateSession": unaryHandler[xwire.CreateSessionRequest](xwire.CreateSessionResponse{SessionID: "sess-1"}),
		"ExecuteSchemeQuery": func(stream grpc.ServerStream) error {
			if err := stream.RecvMsg(&seen); err != nil {
				return err
			}
			return stream.SendMsg(&xwire.ExecuteSchemeQueryResponse{})
		},
		"DeleteSession": unaryHandler[xwire.DeleteSessionRequest](xwire.DeleteSessionResponse{}),
	})
	defer cleanup()

	c := NewClient(conn, "/Ydb.Table.V1.TableService/")
	defer c.Close(context.Background())
	err := c.RetryExecuteSchemeQuery(context.Background(), xretry.Options{}, "CREATE TABLE t (id Uint64)")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (id Uint64)", seen.YQLText)
}

func TestClientRetryExecuteBulkUpsertSucceeds(t *testing.T) {
	var seen xwire.BulkUpsertRequest
	conn, _, cleanup := newTestConn(t, map[string]tableHandlerFunc{
		"CreateSession": unaryHandler[xwire.CreateSessionRequest](xwire.CreateSessionResponse{SessionID: "sess-1"}),
		"BulkUpsert": func(stream grpc.ServerStream) error {
			if err := stream.RecvMsg(&seen); err != nil {
				return err
			}
			return stream.SendMsg(&xwire.BulkUpsertResponse{})
		},
		"DeleteSession": unaryHandler[xwire.DeleteSessionRequest](xwire.DeleteSessionResponse{}),
	})
	defer cleanup()

	c := NewClient(conn, "/Ydb.Table.V1.TableService/")
	defer c.Close(context.Background())
	err := c.RetryExecuteBulkUpsert(context.Background(), xretry.Options{}, "my_table", []any{map[string]any{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, "my_table", seen.Table)
}
