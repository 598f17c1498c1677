// ABOUTME: Package documentation for the application store
// ABOUTME: Describes tables, repository interfaces, and error conventions

// Package store provides SQLite-backed persistence for the gateway: student
// identity bindings, per-user conversation state, course offerings, scores,
// leave requests, and the message/event audit logs.
//
// Consumers depend on the narrow per-concern interfaces in store.go
// (StudentRepository, ChatLogger, LeaveRepository, ...) rather than on
// SQLiteStore, which implements all of them plus state.Repository.
//
// # Error conventions
//
//   - ErrNotFound: the requested row does not exist
//   - ErrDuplicateStudent: student id already bound (UNIQUE student_id);
//     concurrent registrations race on the insert and exactly one wins
//   - ErrDuplicateLeave: a leave request exists for that student and date
//
// All other errors are wrapped with context via fmt.Errorf %w.
package store
