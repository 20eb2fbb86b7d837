package table

import (
	"context"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// TxHandle is a started transaction. Only Commit/Rollback satisfy
// internal/xretry.TxHandle; Execute is the façade's own addition so a
// retry_transaction closure has something to run queries against.
type TxHandle struct {
	session *Session
	txID    string
}

// Execute runs a parameterized data query against the transaction.
func (tx *TxHandle) Execute(ctx context.Context, yql string, params map[string]any) ([]ResultSet, error) {
	var resp xwire.ExecuteDataQueryResponse
	req := xwire.ExecuteDataQueryRequest{
		SessionID: tx.session.id,
		TxID:      tx.txID,
		YQLText:   yql,
		Params:    params,
	}
	if err := tx.session.invoke(ctx, "ExecuteDataQuery", &req, &resp); err != nil {
		return nil, err
	}
	if err := statusError(resp.OperationStatus); err != nil {
		return nil, err
	}
	return decodeResultSets(resp.ResultSets)
}

// Commit finalizes the transaction server-side.
func (tx *TxHandle) Commit(ctx context.Context) error {
	var resp xwire.CommitTransactionResponse
	req := xwire.CommitTransactionRequest{SessionID: tx.session.id, TxID: tx.txID}
	if err := tx.session.invoke(ctx, "CommitTransaction", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// Rollback discards the transaction's partial state server-side.
// Called best-effort by the Transaction Runner between failed
// attempts; never by Commit's own success path.
func (tx *TxHandle) Rollback(ctx context.Context) error {
	var resp xwire.RollbackTransactionResponse
	req := xwire.RollbackTransactionRequest{SessionID: tx.session.id, TxID: tx.txID}
	if err := tx.session.invoke(ctx, "RollbackTransaction", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}
