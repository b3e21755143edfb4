package web

import (
	"context"
	"net/http"

	"github.com/excelops/sheetops/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context so submitted jobs
// record who asked for them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // already resolved by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithClientIP(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}
