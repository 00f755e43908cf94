// Package logs tails the daemon log file with bounded memory.
//
// A negative offset means "last N lines"; a non-negative offset resumes
// reading where a previous call left off. Follow mode polls for new lines
// until the wait window or the caller's context expires. The CLI logs
// command drives these semantics over IPC so it never touches the daemon's
// log directory layout directly.
package logs
