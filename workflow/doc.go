// Package workflow executes CHAIN and ROUTER workflow definitions against
// an agent registry and a model factory: CHAIN runs a fixed step sequence,
// ROUTER lets a manager agent pick the next worker, bounded by maxSteps.
package workflow
