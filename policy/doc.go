// Package policy holds the mediation request state machine and the role matrix that decides who may drive each edge.
//
// Both the server-side transition engine and the advisory action resolver read the same tables, so what a viewer is
// offered can never drift from what the engine permits.
package policy
