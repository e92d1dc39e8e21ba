// Package classify scores byte strings against a handful of generative models
// to decide whether a literal is more likely base64-encoded binary than
// ordinary text or a number.
//
// Every score is a log2 probability. An impossible string scores NegInf.
// All functions are pure and safe for concurrent use.
package classify
