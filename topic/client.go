package topic

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// Consumer names a topic consumer, at creation time or in a
// DescribeConsumer result.
type Consumer struct {
	Name            string
	Important       bool
	SupportedCodecs []string
}

// ConsumerStats is DescribeConsumer's optional usage snapshot.
type ConsumerStats struct {
	BytesRead       int64
	MaxReadTimeLag  time.Duration
	MaxWriteTimeLag time.Duration
}

// Client is the topic management façade: CreateTopic/DropTopic/
// DescribeConsumer, plain unary calls riding the shared Connection
// Pool channel and Auth Interceptor. Writer/Reader sessions are opened
// separately (Open/OpenReader) since those ride their own bidi stream.
type Client struct {
	conn   *grpc.ClientConn
	prefix string
}

// NewClient wraps conn for topic management calls. methodPrefix is the
// gRPC method path prefix, e.g. "/Ydb.Topic.V1.TopicService/".
func NewClient(conn *grpc.ClientConn, methodPrefix string) *Client {
	return &Client{conn: conn, prefix: methodPrefix}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, c.prefix+method, req, resp, grpc.CallContentSubtype(xwire.CodecName))
}

// CreateTopic creates path with the given partition count, optional
// retention window and supported codecs, and an initial consumer set.
func (c *Client) CreateTopic(ctx context.Context, path string, partitions int64, retention time.Duration, codecs []string, consumers []Consumer) error {
	req := xwire.TopicCreateRequest{
		Path:              path,
		PartitionsCount:   partitions,
		RetentionPeriodMS: retention.Milliseconds(),
		SupportedCodecs:   codecs,
	}
	for _, cons := range consumers {
		req.Consumers = append(req.Consumers, xwire.TopicConsumerDecl{
			Name: cons.Name, Important: cons.Important, SupportedCodecs: cons.SupportedCodecs,
		})
	}

	var resp xwire.TopicCreateResponse
	if err := c.invoke(ctx, "CreateTopic", &req, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// DropTopic deletes path and every consumer registered on it.
func (c *Client) DropTopic(ctx context.Context, path string) error {
	var resp xwire.TopicDropResponse
	if err := c.invoke(ctx, "DropTopic", &xwire.TopicDropRequest{Path: path}, &resp); err != nil {
		return err
	}
	return statusError(resp.OperationStatus)
}

// DescribeConsumer reads a consumer's declared codecs/importance, and
// optionally its read-lag/throughput stats.
func (c *Client) DescribeConsumer(ctx context.Context, path, consumer string, includeStats bool) (Consumer, ConsumerStats, error) {
	req := xwire.TopicDescribeConsumerRequest{Path: path, Consumer: consumer, IncludeStats: includeStats}
	var resp xwire.TopicDescribeConsumerResponse
	if err := c.invoke(ctx, "DescribeConsumer", &req, &resp); err != nil {
		return Consumer{}, ConsumerStats{}, err
	}
	if err := statusError(resp.OperationStatus); err != nil {
		return Consumer{}, ConsumerStats{}, err
	}
	cons := Consumer{
		Name: resp.Consumer.Name, Important: resp.Consumer.Important, SupportedCodecs: resp.Consumer.SupportedCodecs,
	}
	stats := ConsumerStats{
		BytesRead:       resp.Stats.BytesRead,
		MaxReadTimeLag:  time.Duration(resp.Stats.MaxReadTimeLagMS) * time.Millisecond,
		MaxWriteTimeLag: time.Duration(resp.Stats.MaxWriteTimeLagMS) * time.Millisecond,
	}
	return cons, stats, nil
}
