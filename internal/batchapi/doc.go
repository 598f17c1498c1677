// ABOUTME: Package documentation for the operator batch API
// ABOUTME: Describes authentication and the grade publication endpoint

// Package batchapi exposes the operator-facing HTTP API. Teaching staff use
// it to fan out grade-publication notifications after uploading scores.
//
// Every endpoint sits behind HS256 JWT bearer authentication; the "sub"
// claim identifies the operator for the audit log. Per-student failures
// (unbound ids, push errors) are reported in the response, not as request
// failures: publishing to 40 students should not abort because one never
// registered.
package batchapi
