// Package gateway implements driven.RemoteGateway over the board store's
// HTTP API.
//
//	POST   {base}/workspaces/{scope}/boards   create (Idempotency-Key: correlation ID)
//	PATCH  {base}/boards/{id}                 replace content and/or rename
//	DELETE {base}/boards/{id}                 delete; 404 and 410 count as done
//
// RateLimited wraps any gateway with a token bucket that also honours
// Retry-After on 429 responses.
package gateway
