// ABOUTME: Package documentation for the postback action grammar
// ABOUTME: Explains the recognized encodings and the total-function contract

// Package postback decodes the opaque callback strings the messaging
// platform delivers with postback events.
//
// Three encodings are recognized, in priority order:
//
//  1. Structured: "summary:<action>:<argument>"
//  2. JSON: {"type":"INFO","action":"...","contents_name":"..."}
//  3. Legacy bracketed: "[INFO]<action> <argument>", with an alias table
//     mapping historical action names onto current ones
//
// Anything else falls through to a catch-all Action whose Name is the raw
// string. Parse never returns an error; the payloads have evolved over
// several bot generations and must not be able to crash the router.
package postback
