// Package loop runs the bot's single event loop.
//
// One goroutine owns everything the bot does: it waits for the next wake-up
// source, handles it to completion and goes back to waiting. Sources are:
//   - socket: a receive finished and the framing buffer holds new bytes
//   - timer: the scheduler's head entry is due
//   - signal: SIGINT or SIGTERM
//
// The blocking Read runs on a helper goroutine that only touches the framing
// buffer between a resume from the loop and the result it sends back, so the
// buffer always has exactly one owner.
//
// Shutdown is two-stage. The first signal sends QUIT and keeps running so
// the server can close the connection; a second signal, context cancellation
// or the peer closing the socket moves to draining, which closes the
// connection, drops pending callbacks and returns.
//
// Error handling:
//   - framing, parse and handler errors → warning, counted, loop continues
//     (fatal in strict mode)
//   - peer close or receive error → draining, Run returns nil
//   - line longer than the buffer → ErrFatal
package loop
