package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tjfontaine/drydock/internal/executor"
)

// Builder turns a Source into exactly one Artifact or fails with *BuildError.
type Builder interface {
	Build(ctx context.Context, src Source) (*Artifact, error)
}

// DockerBuilder builds container images by shelling out to docker. Results
// are cached by source digest so an unchanged tree never rebuilds.
type DockerBuilder struct {
	runner executor.Runner
	cache  *Cache
	logger *slog.Logger
}

// NewDockerBuilder creates a DockerBuilder. A nil runner defaults to local
// command execution; a nil logger falls back to slog.Default().
func NewDockerBuilder(runner executor.Runner, logger *slog.Logger) *DockerBuilder {
	if runner == nil {
		runner = executor.NewLocal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerBuilder{
		runner: runner,
		cache:  NewCache(),
		logger: logger,
	}
}

var _ Builder = (*DockerBuilder)(nil)

// Build implements Builder.
func (b *DockerBuilder) Build(ctx context.Context, src Source) (*Artifact, error) {
	id, err := SourceDigest(src)
	if err != nil {
		return nil, &BuildError{Source: src, Err: fmt.Errorf("digest source: %w", err)}
	}

	if cached := b.cache.Get(id); cached != nil {
		b.logger.Info("artifact cache hit",
			slog.String("digest", id.String()),
			slog.String("tag", cached.Tag))
		return cached, nil
	}

	descriptor := src.Descriptor
	if descriptor == "" {
		descriptor = "Dockerfile"
	}
	tag := src.Tag
	if tag == "" {
		tag = fmt.Sprintf("drydock/build:%s", id.Encoded()[:12])
	}

	b.logger.Info("building artifact",
		slog.String("root", src.Root),
		slog.String("descriptor", descriptor),
		slog.String("tag", tag))

	result, err := b.runner.Run(ctx, executor.Command{
		Program:    "docker",
		Args:       []string{"build", "-t", tag, "-f", descriptor, "."},
		WorkingDir: src.Root,
	})
	if err != nil {
		output := ""
		if result != nil {
			output = result.Output()
		}
		return nil, &BuildError{Source: src, Output: output, Err: err}
	}

	a := &Artifact{
		ID:        id,
		Tag:       tag,
		Port:      src.Port,
		CreatedAt: time.Now(),
	}
	b.cache.Put(a)

	b.logger.Info("artifact built",
		slog.String("digest", id.String()),
		slog.String("tag", tag))
	return a, nil
}
