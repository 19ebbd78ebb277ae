// Package synthesis defines the contract between the batch engine and an
// external text-to-speech provider: the Provider interface, the synthesis
// parameters that shape an artifact, and the error taxonomy the resilience
// layer classifies against. Concrete providers live under internal/platform.
package synthesis
