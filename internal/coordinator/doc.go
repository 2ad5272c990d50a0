// Package coordinator orchestrates single package installations end to
// end: resolve, register, fetch, verify, apply, publish.
//
// Resolution and duplicate-identity failures surface synchronously from
// Install; everything after registration runs on its own goroutine and
// surfaces through the operation's terminal state. Exactly one terminal
// transition occurs per operation, and the previously installed record
// survives every path except a fully verified, successfully applied
// download.
package coordinator
