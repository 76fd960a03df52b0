// Package reqctx carries request-scoped data through context.Context:
// request metadata set by the HTTP middleware and the authenticated
// caller's claims.
//
// Keys are unexported; use the With*/FromContext pairs.
//
//	ctx = reqctx.WithRequestMeta(ctx, meta)
//	ctx = reqctx.WithClaims(ctx, claims)
//
//	actor := reqctx.Actor(ctx)
//	slog.InfoContext(ctx, "booked", reqctx.LogAttrs(ctx)...)
package reqctx
