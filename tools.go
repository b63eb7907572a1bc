//go:build tools

package tools

// Mocks in pkg/mac/mocks are generated from .mockery.yaml with an
// installed mockery v2 binary, so no tool import is tracked here.
// Run: mockery (from the module root).
