// Package txguard runs code against a world.Tx that may already have
// finished, turning the resulting panic into a failed result.
package txguard

import "github.com/df-mc/worldedit/server/world"

// Run runs fn if tx is not nil. It returns false if tx was nil or fn used tx
// after its transaction finished.
func Run(tx *world.Tx, fn func()) (ok bool) {
	return run(tx, fn)
}

// Value runs fn like Run and returns the value it produced.
func Value[T any](tx *world.Tx, fn func() T) (value T, ok bool) {
	ok = run(tx, func() {
		value = fn()
	})
	return
}

func run(tx *world.Tx, fn func()) (ok bool) {
	if tx == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			if msg, str := r.(string); str && msg == world.ClosedPanicMessage {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}
