// ABOUTME: Package documentation for webhook ingestion
// ABOUTME: Describes the verify-acknowledge-defer contract and ordering rules

// Package webhook implements the ingress for platform deliveries.
//
// The contract with the platform is narrow: a delivery with a bad signature
// gets 400 and is never processed; a valid one gets 200 before any business
// work happens, and everything after the acknowledgment runs on a bounded
// worker pool. Processing failures are logged and swallowed — the platform
// redelivers on its own schedule, and the service's job is to never block
// the delivery thread.
//
// Events within one envelope are forwarded to the router in array order by
// a single worker. No ordering holds across envelopes. Because the 200 goes
// out before processing, the platform may redeliver handled events; a TTL
// cache of webhook event ids suppresses the replays.
package webhook
