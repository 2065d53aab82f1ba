// Package artifact describes deployable contracts and libraries and knows
// where to find their bytecode.
//
// A Descriptor is created once when a module is evaluated and never mutated
// afterwards. Constructor arguments and linked libraries are expressed as
// Args, which are either literals or references to the future result of
// another action.
package artifact
