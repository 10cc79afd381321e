// Tracelens CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/tracelens/internal/dagger"
)

// Tracelens is the main module for the Tracelens CI/CD pipeline
type Tracelens struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Tracelens CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp"]
	source *dagger.Directory,
) *Tracelens {
	return &Tracelens{
		Source: source,
	}
}

// goContainer returns a Go container with the project source mounted.
//
// It is the shared foundation for tests, builds, and linting.
func (t *Tracelens) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", t.Source)
}

// Test runs the tracelens unit tests via "go test"
func (t *Tracelens) Test(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
