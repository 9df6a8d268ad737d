// Package resilience groups the failure-handling helpers used around remote calls.
//
//   - circuitbreaker: gobreaker wrappers for the news providers, the summarizer,
//     the synthesizer and the delivery channel
//   - retry: exponential backoff with jitter, used only where a repeat is safe
//     (subscriber list loading and the database connect)
//
// Generation calls are not retried. A failed summarization or synthesis fails
// the subscriber for this batch and the next delivery slot tries again.
package resilience
