// ABOUTME: Package documentation for the event router
// ABOUTME: Explains how registration status and conversation state pick a handler

// Package router turns decoded webhook events into business handler calls.
//
// Routing is a two-level decision. First, registration: any text message
// from a user with no bound student record is treated as a registration
// attempt, and postbacks from such users are dropped. Second, conversation
// state: a registered user's pending status decides whether a text message
// is a leave reason, a TA question, a content name, or — when idle — a
// possible trigger phrase.
//
// Postbacks that start a flow do so unconditionally. Tapping the score menu
// while mid-way through a leave request abandons the leave request; the most
// recent intent wins. Handler errors are logged and never propagate, so one
// failing event cannot poison the rest of its delivery.
package router
