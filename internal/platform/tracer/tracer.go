// Package tracer is a small tracing facade so registry code can emit spans without
// importing OpenTelemetry everywhere.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanIssue, tracer.String(tracer.AttrHolder, holder.String()))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records the value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanIssue        = "registry.issue"
	SpanRevoke       = "registry.revoke"
	SpanAddIssuer    = "registry.issuer.add"
	SpanRemoveIssuer = "registry.issuer.remove"
	SpanVerify       = "registry.verify"
	SpanVerifyByHash = "registry.verify_by_hash"
	SpanVerifyChain  = "registry.events.verify_chain"
	SpanMetadataPut  = "metadata.put"
	SpanMetadataGet  = "metadata.get"
	SpanPublishBatch = "eventlog.publish_batch"
)

// Attribute keys.
const (
	AttrCaller        = "registry.caller"
	AttrHolder        = "registry.holder"
	AttrIdentity      = "registry.identity"
	AttrCertificateID = "registry.certificate_id"
	AttrContentHash   = "registry.content_hash"
	AttrTxID          = "registry.tx_id"
	AttrEventCount    = "registry.event_count"
	AttrCacheHit      = "cache.hit"
)
