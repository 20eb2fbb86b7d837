// Package table implements the table data-plane façade: a pooled
// Session satisfying internal/xsession.Pool and internal/xretry.Session,
// a TxHandle satisfying internal/xretry.TxHandle, and the
// retry_transaction / retry_execute_scheme_query / retry_execute_bulk_upsert
// entry points spec §4.7 describes, wiring the Session Pool and
// Transaction Runner together over plain unary gRPC calls.
package table
