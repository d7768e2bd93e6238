package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
	ctxKeyRequestID contextKey = "audit_request_id"
)

// ClientInfo identifies who made a request, for the upload audit trail.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// WithClientInfo stores client details on ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, info.IPAddress)
	ctx = context.WithValue(ctx, ctxKeyUserAgent, info.UserAgent)
	return context.WithValue(ctx, ctxKeyRequestID, info.RequestID)
}

// ClientInfoFromContext returns the client details stored by WithClientInfo.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	var info ClientInfo
	info.IPAddress, _ = ctx.Value(ctxKeyIPAddress).(string)
	info.UserAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	info.RequestID, _ = ctx.Value(ctxKeyRequestID).(string)
	return info
}
