// Package resilience provides the guarded remote-call facade used for every
// managed-service dependency: the conversational assistant, the record and
// object stores, the email sender, and the speech services.
//
// A call travels through three layers:
//
//  1. Handle tracks whether the dependency is available at all. A handle is
//     Disabled when its feature flag is off, and becomes Unreachable when
//     client construction fails. Construction is lazy and happens at most
//     once per process; an Unreachable handle never recovers within the
//     process lifetime.
//
//  2. Retrier wraps repeated attempts of a single operation. Retries use a
//     fixed delay rather than exponential backoff: attempt counts are small
//     and the dependencies' unavailability windows are short, which keeps the
//     worst-case latency predictable for an interactive, low-traffic tool.
//     This is a known limitation for high-throughput use.
//
//  3. Guard is the facade callers see. Every outcome, including a disabled
//     dependency, an exhausted retry budget, or a panic in the operation,
//     becomes a well-formed CallResult. Raw errors never cross the guard
//     boundary; callers render CallResult fields and nothing else. When a
//     fallback is registered, unavailable dependencies yield synthetic
//     payloads tagged as such instead of failures.
//
// Error classification drives retry decisions: external and timeout errors
// are transient and retryable. Everything else is terminal, including
// errors the classifier does not recognize.
package resilience
