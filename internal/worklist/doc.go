// Package worklist drives resolves across many documents concurrently.
//
// Parallelism is bounded by a worker semaphore. A cancelled run never
// surfaces a partial change set: in-flight documents come back marked for
// recomputation and are re-resolved in full on retry.
package worklist
