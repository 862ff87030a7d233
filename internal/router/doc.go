// Package router is a reference TrafficRouter implementing the label
// scoring formula Σ_{k∈R}(L[k]==R[k] ? 10 : -∞), where R is the requested
// label set on the invocation context and L is a candidate instance's
// advertised labels: any requested key the instance doesn't match at all
// disqualifies it outright, so the chosen instance always satisfies every
// requested label exactly. Every qualifying instance therefore scores the
// same 10·|R|, and the first qualifying candidate in iteration order wins.
// An empty request set gives every instance a score of 0, so the first one
// in the slice wins. The router does not know which instance is the pool
// default; the runtime passes candidates in pool insertion order.
package router
