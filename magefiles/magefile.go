//go:build mage

// Package main provides build targets for vinv using Mage.
//
// Usage:
//
//	mage build         Compile the vinv binary to bin/
//	mage test:all      Run all tests
//	mage test:unit     Run tests without the CLI package
//	mage test:cover    Run all tests with a coverage profile
//	mage vet           Run go vet
//	mage lint          Run go vet and golangci-lint
//	mage clean         Remove build artifacts
//	mage install       Install vinv to GOPATH/bin
//	mage stats         Print Go LOC and schema set counts
package main

const (
	binGo      = "go"
	binaryName = "vinv"
	binaryDir  = "bin"
	cmdDir     = "./cmd/vinv"
	modulePath = "github.com/vinv-group/vinv-go"
)
