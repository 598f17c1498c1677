// ABOUTME: Package documentation for the business handlers
// ABOUTME: Describes the per-flow handlers and their failure policy

// Package handlers implements the business flows behind the bot: identity
// binding, leave requests, TA questions, score lookups, and attendance.
//
// Each handler owns its flow end to end, including the state transitions
// that arm the next turn of the conversation. On an internal failure a
// handler sends the generic "try again later" reply when it still holds a
// usable reply token, then returns the error for the router to log. User
// mistakes (unknown student id, duplicate leave, missing score) are answered
// directly and are not errors.
package handlers
