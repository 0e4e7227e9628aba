// Package block defines the unit of computation of a model and its lifecycle.
//
// A block is constructed, then initialized against its parent container
// (Init binds and validates its ports), then post-initialized (PostInit
// allocates derived structure such as synthesized children), and finally
// activated once per simulation step:
//
//	Created -> Initialized -> PostInitialized -> Active
//
// Transitions only move forward. A failed Init leaves the block in the
// terminal Failed phase.
//
// Blocks are not safe for concurrent use; a model is stepped by a single
// goroutine.
package block
