// Package httptransport implements driven.Transport over net/http.
//
// Every request waits on a token-bucket limiter, carries the header from
// the configured signer, and is bounded by the client timeout. A 429 or
// 503 with Retry-After holds back later requests until the store is
// ready again. Requests are never retried here.
package httptransport
