// Package lifecycle drives one module's instance pool through the
// blue/green upgrade sequence: add a new instance, start its container,
// mark it ready, move the previous default to dying, and destroy the
// dying instance once it drains — forcibly, after a grace period, if it
// never does. It publishes the corresponding events on the module's bus at
// each step.
package lifecycle
