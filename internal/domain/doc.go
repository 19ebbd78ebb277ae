// Package domain contains the core entities of the batch synthesis engine:
// work items, per-item results, and the run summary. These types carry no
// behavior beyond construction and validation; orchestration logic lives in
// the orchestrator package.
package domain
