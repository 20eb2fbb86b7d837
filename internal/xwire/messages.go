package xwire

// StatusCode mirrors the small slice of the database's numeric
// operation-status vocabulary the driver needs to classify. The full
// code space belongs to the wire schema (out of scope); these are the
// values classify.go switches on.
type StatusCode uint32

const (
	StatusSuccess            StatusCode = 400000
	StatusBadRequest         StatusCode = 400010
	StatusUnauthorized       StatusCode = 400020
	StatusAborted            StatusCode = 400030
	StatusUnavailable        StatusCode = 400040
	StatusOverloaded         StatusCode = 400050
	StatusSchemeError        StatusCode = 400060
	StatusPreconditionFailed StatusCode = 400070
	StatusBadSession         StatusCode = 400080
	StatusSessionExpired     StatusCode = 400090
	StatusUndetermined       StatusCode = 400100
)

// Issue is the wire shape of spec.md's structured diagnostic record.
type Issue struct {
	Code     uint32  `json:"code"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Nested   []Issue `json:"nested,omitempty"`
}

// OperationStatus is embedded in every response message. StatusCarrier
// lets Stream Framing (framing.go) convert a non-success frame into a
// typed error before any higher-level decode runs (spec §4.8).
type OperationStatus struct {
	Code   StatusCode `json:"status_code"`
	Issues []Issue    `json:"issues,omitempty"`
}

// Status reports the operation status. A zero Code (status_code absent
// from the message) reads as StatusSuccess.
func (s OperationStatus) Status() (StatusCode, []Issue) {
	if s.Code == 0 {
		return StatusSuccess, s.Issues
	}
	return s.Code, s.Issues
}

// StatusCarrier is implemented by every response message.
type StatusCarrier interface {
	Status() (StatusCode, []Issue)
}

// --- Discovery (C5) ---

type ListEndpointsRequest struct {
	Database string `json:"database"`
}

type EndpointInfo struct {
	FQDN     string   `json:"fqdn"`
	Port     int      `json:"port"`
	SSL      bool     `json:"ssl"`
	Location string   `json:"location"`
	Services []string `json:"services"`
}

type ListEndpointsResponse struct {
	OperationStatus
	Endpoints    []EndpointInfo `json:"endpoints"`
	SelfLocation string         `json:"self_location"`
}

// --- Auth / login credential (C1) ---

type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OperationStatus
	Token string `json:"token"`
}

// --- Table / session (C8, C9) ---

type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	OperationStatus
	SessionID string `json:"session_id"`
}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type DeleteSessionResponse struct {
	OperationStatus
}

type KeepAliveRequest struct {
	SessionID string `json:"session_id"`
}

type KeepAliveResponse struct {
	OperationStatus
}

type BeginTransactionRequest struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

type BeginTransactionResponse struct {
	OperationStatus
	TxID string `json:"tx_id"`
}

type ExecuteDataQueryRequest struct {
	SessionID string         `json:"session_id"`
	TxID      string         `json:"tx_id"`
	YQLText   string         `json:"yql_text"`
	Params    map[string]any `json:"params,omitempty"`
}

type ExecuteDataQueryResponse struct {
	OperationStatus
	TxID     string           `json:"tx_id"`
	ResultSets []ResultSet    `json:"result_sets"`
}

type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    [][]any          `json:"rows"`
}

type CommitTransactionRequest struct {
	SessionID string `json:"session_id"`
	TxID      string `json:"tx_id"`
}

type CommitTransactionResponse struct {
	OperationStatus
}

type RollbackTransactionRequest struct {
	SessionID string `json:"session_id"`
	TxID      string `json:"tx_id"`
}

type RollbackTransactionResponse struct {
	OperationStatus
}

type BulkUpsertRequest struct {
	Table string  `json:"table"`
	Rows  []any   `json:"rows"`
}

type BulkUpsertResponse struct {
	OperationStatus
}

// ExecuteSchemeQueryRequest carries DDL text outside any transaction
// (spec §4.7's retry_execute_scheme_query): scheme operations have no
// tx_id to thread through.
type ExecuteSchemeQueryRequest struct {
	SessionID string `json:"session_id"`
	YQLText   string `json:"yql_text"`
}

type ExecuteSchemeQueryResponse struct {
	OperationStatus
}

// --- Scheme (supplemented, §6 + original_source client_scheme) ---

type MakeDirectoryRequest struct{ Path string `json:"path"` }
type MakeDirectoryResponse struct{ OperationStatus }

type RemoveDirectoryRequest struct{ Path string `json:"path"` }
type RemoveDirectoryResponse struct{ OperationStatus }

type ListDirectoryRequest struct{ Path string `json:"path"` }
type DirectoryEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
type ListDirectoryResponse struct {
	OperationStatus
	Children []DirectoryEntry `json:"children"`
}

type DescribePathRequest struct{ Path string `json:"path"` }
type DescribePathResponse struct {
	OperationStatus
	Entry DirectoryEntry `json:"entry"`
}

// Permission is one ACL entry: subject granted a set of named rights.
type Permission struct {
	Subject string   `json:"subject"`
	Rights  []string `json:"rights"`
}

type ModifyPermissionsRequest struct {
	Path    string       `json:"path"`
	Grant   []Permission `json:"grant,omitempty"`
	Revoke  []Permission `json:"revoke,omitempty"`
	Clear   bool         `json:"clear,omitempty"`
}
type ModifyPermissionsResponse struct{ OperationStatus }

// --- Topic (C11 writer, supplemented reader) ---

type TopicWriteInit struct {
	Path        string   `json:"path"`
	ProducerID  string   `json:"producer_id"`
	SessionMeta string   `json:"session_meta,omitempty"`
	Codecs      []string `json:"codecs,omitempty"`
	AutoSeqNo   bool     `json:"auto_seq_no"`
}

type TopicWriteInitResult struct {
	OperationStatus
	LastSeqNo int64    `json:"last_seq_no"`
	SessionID string   `json:"session_id"`
	Codec     string   `json:"codec"`
}

type TopicMessageData struct {
	SeqNo     int64  `json:"seq_no"`
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at_unix_nano"`
}

type TopicWriteRequest struct {
	Messages []TopicMessageData `json:"messages,omitempty"`
	UpdateToken string           `json:"update_token,omitempty"`
}

// AckStatus enumerates the four acknowledgement shapes from spec §4.9.
type AckStatus string

const (
	AckWritten      AckStatus = "written"
	AckSkipped      AckStatus = "skipped"
	AckWrittenInTx  AckStatus = "written_in_tx"
	AckUnknown      AckStatus = "unknown"
)

type TopicAck struct {
	SeqNo  int64     `json:"seq_no"`
	Status AckStatus `json:"status"`
	Offset int64     `json:"offset,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

type TopicWriteResponse struct {
	OperationStatus
	Acks []TopicAck `json:"acks"`
}

// TopicWriterFrame is the single wire message type carried over a
// topic writer's bidi stream: either the one-time Init handshake or a
// steady-state batch of messages / out-of-band token update.
type TopicWriterFrame struct {
	Init  *TopicWriteInit    `json:"init,omitempty"`
	Write *TopicWriteRequest `json:"write,omitempty"`
}

// TopicWriterFrameResponse is TopicWriterFrame's response-side
// counterpart.
type TopicWriterFrameResponse struct {
	OperationStatus
	InitResult *TopicWriteInitResult `json:"init_result,omitempty"`
	Write      *TopicWriteResponse   `json:"write,omitempty"`
}

type TopicReadInit struct {
	Path      string `json:"path"`
	Consumer  string `json:"consumer"`
}

type TopicReadMessage struct {
	PartitionID int64  `json:"partition_id"`
	Offset      int64  `json:"offset"`
	Data        []byte `json:"data"`
}

type TopicReadResponse struct {
	OperationStatus
	Messages []TopicReadMessage `json:"messages"`
}

type TopicReadCommit struct {
	PartitionID int64 `json:"partition_id"`
	Offset      int64 `json:"offset"`
}

// TopicConsumerDecl names a consumer at topic creation time, or
// describes one back (SUPPLEMENTED FEATURES: create_topic/
// drop_topic/describe_consumer).
type TopicConsumerDecl struct {
	Name            string   `json:"name"`
	Important       bool     `json:"important,omitempty"`
	SupportedCodecs []string `json:"supported_codecs,omitempty"`
}

type TopicCreateRequest struct {
	Path              string              `json:"path"`
	PartitionsCount   int64               `json:"partitions_count"`
	RetentionPeriodMS int64               `json:"retention_period_ms,omitempty"`
	SupportedCodecs   []string            `json:"supported_codecs,omitempty"`
	Consumers         []TopicConsumerDecl `json:"consumers,omitempty"`
}
type TopicCreateResponse struct{ OperationStatus }

type TopicDropRequest struct{ Path string `json:"path"` }
type TopicDropResponse struct{ OperationStatus }

type TopicConsumerStats struct {
	BytesRead         int64 `json:"bytes_read"`
	MaxReadTimeLagMS  int64 `json:"max_read_time_lag_ms"`
	MaxWriteTimeLagMS int64 `json:"max_write_time_lag_ms"`
}

type TopicDescribeConsumerRequest struct {
	Path         string `json:"path"`
	Consumer     string `json:"consumer"`
	IncludeStats bool   `json:"include_stats,omitempty"`
}
type TopicDescribeConsumerResponse struct {
	OperationStatus
	Consumer TopicConsumerDecl  `json:"consumer"`
	Stats    TopicConsumerStats `json:"stats"`
}

// --- Coordination (C12) ---

type CoordinationCreateNodeRequest struct{ Path string `json:"path"` }
type CoordinationCreateNodeResponse struct{ OperationStatus }

type CoordinationDropNodeRequest struct{ Path string `json:"path"` }
type CoordinationDropNodeResponse struct{ OperationStatus }

type CoordinationDescribeNodeRequest struct{ Path string `json:"path"` }
type CoordinationDescribeNodeResponse struct {
	OperationStatus
	Path string `json:"path"`
}

type CoordinationSessionStart struct {
	NodePath    string `json:"node_path"`
	SessionSeed string `json:"session_seed"`
	TimeoutMS   int64  `json:"timeout_ms"`
}

type CoordinationSessionStarted struct {
	OperationStatus
	SessionID uint64 `json:"session_id"`
}

type CoordinationPing struct {
	Opaque uint64 `json:"opaque"`
}

type CoordinationPong struct {
	Opaque uint64 `json:"opaque"`
}

type CoordinationRequestEnvelope struct {
	RequestID uint64 `json:"request_id"`

	CreateSemaphore  *CreateSemaphoreReq  `json:"create_semaphore,omitempty"`
	AcquireSemaphore *AcquireSemaphoreReq `json:"acquire_semaphore,omitempty"`
	ReleaseSemaphore *ReleaseSemaphoreReq `json:"release_semaphore,omitempty"`
	DescribeSemaphore *DescribeSemaphoreReq `json:"describe_semaphore,omitempty"`
	UpdateSemaphore  *UpdateSemaphoreReq  `json:"update_semaphore,omitempty"`
	DeleteSemaphore  *DeleteSemaphoreReq  `json:"delete_semaphore,omitempty"`
	Ping             *CoordinationPing    `json:"ping,omitempty"`
}

type CoordinationResponseEnvelope struct {
	OperationStatus
	RequestID uint64 `json:"request_id"`

	CreateSemaphore  *CreateSemaphoreResp  `json:"create_semaphore,omitempty"`
	AcquireSemaphore *AcquireSemaphoreResp `json:"acquire_semaphore,omitempty"`
	ReleaseSemaphore *ReleaseSemaphoreResp `json:"release_semaphore,omitempty"`
	DescribeSemaphore *DescribeSemaphoreResp `json:"describe_semaphore,omitempty"`
	UpdateSemaphore  *UpdateSemaphoreResp  `json:"update_semaphore,omitempty"`
	DeleteSemaphore  *DeleteSemaphoreResp  `json:"delete_semaphore,omitempty"`
	Pong             *CoordinationPong     `json:"pong,omitempty"`
	SemaphoreChanged *SemaphoreChanged     `json:"semaphore_changed,omitempty"`
}

type CreateSemaphoreReq struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
	Data  []byte `json:"data,omitempty"`
}
type CreateSemaphoreResp struct{}

type AcquireSemaphoreReq struct {
	Name      string `json:"name"`
	Count     uint64 `json:"count"`
	TimeoutMS int64  `json:"timeout_ms"`
	Ephemeral bool   `json:"ephemeral"`
	Data      []byte `json:"data,omitempty"`
}
type AcquireSemaphoreResp struct {
	Acquired bool `json:"acquired"`
}

type ReleaseSemaphoreReq struct {
	Name string `json:"name"`
}
type ReleaseSemaphoreResp struct {
	Released bool `json:"released"`
}

type DescribeSemaphoreReq struct {
	Name          string `json:"name"`
	IncludeOwners bool   `json:"include_owners"`
	Watch         bool   `json:"watch"`
}
type SemaphoreOwner struct {
	SessionID uint64 `json:"session_id"`
	Count     uint64 `json:"count"`
}
type DescribeSemaphoreResp struct {
	Name    string           `json:"name"`
	Count   uint64           `json:"count"`
	Limit   uint64           `json:"limit"`
	Owners  []SemaphoreOwner `json:"owners,omitempty"`
}

type UpdateSemaphoreReq struct {
	Name  string `json:"name"`
	Limit uint64 `json:"limit"`
}
type UpdateSemaphoreResp struct{}

type DeleteSemaphoreReq struct {
	Name  string `json:"name"`
	Force bool   `json:"force"`
}
type DeleteSemaphoreResp struct{}

// SemaphoreChanged is pushed asynchronously to a watching session (spec §4.10 watch_semaphore).
type SemaphoreChanged struct {
	Name          string `json:"name"`
	DataChanged   bool   `json:"data_changed"`
	OwnersChanged bool   `json:"owners_changed"`
	Gone          bool   `json:"gone"`
}

// CoordinationFrame is the single wire message type carried over the
// one coordination bidi stream: either the one-time session handshake
// or a steady-state operation/ping envelope.
type CoordinationFrame struct {
	SessionStart *CoordinationSessionStart    `json:"session_start,omitempty"`
	Request      *CoordinationRequestEnvelope `json:"request,omitempty"`
}

// CoordinationFrameResponse is CoordinationFrame's response-side
// counterpart; it embeds OperationStatus so Stream Framing can convert
// a non-success frame before any higher decode (spec §4.8).
type CoordinationFrameResponse struct {
	OperationStatus
	SessionStarted *CoordinationSessionStarted   `json:"session_started,omitempty"`
	Response       *CoordinationResponseEnvelope `json:"response,omitempty"`
}
