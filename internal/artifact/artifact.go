// Package artifact produces and identifies immutable build artifacts. One
// artifact is built per pipeline run and every verification stage consumes
// that same artifact, never rebuilding it.
package artifact

import (
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
)

// Artifact is an immutable, addressable build output. Fields are set once by
// a Builder and must not be mutated afterwards.
type Artifact struct {
	// ID is the content digest of the source tree plus build descriptor that
	// produced this artifact.
	ID digest.Digest
	// Tag is the image reference the artifact was built as.
	Tag string
	// Port is the port the contained service listens on.
	Port int
	// CreatedAt records when the build (or cache hit) happened.
	CreatedAt time.Time
}

// Ref returns the tag when set, otherwise the digest. Used anywhere the
// artifact has to be named to an external runtime.
func (a *Artifact) Ref() string {
	if a.Tag != "" {
		return a.Tag
	}
	return a.ID.String()
}

// Source describes what to build: a source tree plus a build descriptor.
type Source struct {
	// Root is the build context directory.
	Root string
	// Descriptor is the path of the build file (e.g. a Dockerfile), relative
	// to Root.
	Descriptor string
	// Tag is the image reference to build as.
	Tag string
	// Port is the port the resulting service exposes.
	Port int
}

// BuildError reports that an artifact could not be produced. It is fatal to
// the pipeline run: no later stage has anything to verify.
type BuildError struct {
	Source Source
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("build %s: %v\n%s", e.Source.Root, e.Err, e.Output)
	}
	return fmt.Sprintf("build %s: %v", e.Source.Root, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
