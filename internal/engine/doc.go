// Package engine wires settings, the remote hosting client, the
// solution-type registry and the generator into one object built at
// process start. Commands call its methods instead of reaching for global
// state.
package engine
