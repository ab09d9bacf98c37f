// Package agent defines the uniform contract every task agent implements
// (Describe + Run), the error taxonomy agents signal, and the Registry: a
// static capability table built at process start that validates arguments
// against an agent's parameter schema before dispatching to it.
package agent
