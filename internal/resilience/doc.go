// Package resilience protects calls to the external synthesis provider.
// It composes three mechanisms as an explicit wrapper chain, innermost first:
// error recording, a per-operation circuit breaker, and retry with
// exponential backoff. Handler.Protect applies the chain in that order.
package resilience
