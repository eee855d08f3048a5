// Package comments implements the comment form controller for mark threads.
//
// Every mark on a verification report owns one thread: an ordered list of
// comments and a single reusable input form. The form serves three intents
// (a new comment, a reply that quotes another comment, an edit of an
// existing comment) and the controller keeps that intent explicit as a
// FormState per thread. Views never hold state of their own; they receive
// projection calls through ThreadView after each transition or server
// response.
//
// Requests run as cancellable tasks keyed by thread and request kind. A newer
// request for the same key cancels the older one and the older outcome is
// dropped. A response that arrives after the user moved the form to a new
// intent still patches the comment list but leaves the form alone.
package comments
