// Package admission provides the request admission and caching layer that
// sits on the hot path of every extraction request: a bounded TTL/LRU result
// cache and a per-client sliding-window rate limiter.
//
// Both components keep all state in process memory and are safe for
// concurrent use. Instances are constructed by the composition root and
// handed to request handlers; there is no package-level shared state.
package admission
