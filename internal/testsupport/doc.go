// Package testsupport holds shared fixtures for mediafx tests: isolated
// configurations, stubbed binaries, an opened journal and a preloaded
// in-memory host engine.
package testsupport
