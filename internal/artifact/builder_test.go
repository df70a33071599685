package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/drydock/internal/executor"
)

// fakeRunner records invocations and returns scripted results.
type fakeRunner struct {
	calls  []executor.Command
	result *executor.Result
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, cmd executor.Command) (*executor.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.result == nil {
		return &executor.Result{}, f.err
	}
	return f.result, f.err
}

func (f *fakeRunner) Start(ctx context.Context, cmd executor.Command) (executor.Process, error) {
	return nil, errors.New("not supported")
}

func sourceTree(t *testing.T) Source {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	return Source{Root: dir, Descriptor: "Dockerfile", Tag: "drydock/test:1", Port: 8080}
}

func TestDockerBuilder_Build(t *testing.T) {
	runner := &fakeRunner{}
	builder := NewDockerBuilder(runner, nil)
	src := sourceTree(t)

	art, err := builder.Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "drydock/test:1", art.Tag)
	assert.Equal(t, 8080, art.Port)
	assert.NotEmpty(t, art.ID)
	assert.WithinDuration(t, time.Now(), art.CreatedAt, time.Minute)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "docker", runner.calls[0].Program)
	assert.Equal(t, []string{"build", "-t", "drydock/test:1", "-f", "Dockerfile", "."}, runner.calls[0].Args)
	assert.Equal(t, src.Root, runner.calls[0].WorkingDir)
}

func TestDockerBuilder_BuildOnce(t *testing.T) {
	runner := &fakeRunner{}
	builder := NewDockerBuilder(runner, nil)
	src := sourceTree(t)

	first, err := builder.Build(context.Background(), src)
	require.NoError(t, err)

	second, err := builder.Build(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, runner.calls, 1, "identical source must not rebuild")
}

func TestDockerBuilder_RebuildsOnSourceChange(t *testing.T) {
	runner := &fakeRunner{}
	builder := NewDockerBuilder(runner, nil)
	src := sourceTree(t)

	_, err := builder.Build(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(src.Root, "main.go"), []byte("package main // v2\n"), 0o644))

	_, err = builder.Build(context.Background(), src)
	require.NoError(t, err)

	assert.Len(t, runner.calls, 2, "changed source must rebuild")
}

func TestDockerBuilder_BuildError(t *testing.T) {
	runner := &fakeRunner{
		result: &executor.Result{Stderr: "no such instruction: FORM", ExitCode: 1},
		err:    errors.New("docker: exit status 1"),
	}
	builder := NewDockerBuilder(runner, nil)
	src := sourceTree(t)

	_, err := builder.Build(context.Background(), src)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Error(), "no such instruction")
}

func TestDockerBuilder_DefaultTagFromDigest(t *testing.T) {
	runner := &fakeRunner{}
	builder := NewDockerBuilder(runner, nil)
	src := sourceTree(t)
	src.Tag = ""

	art, err := builder.Build(context.Background(), src)
	require.NoError(t, err)
	assert.Contains(t, art.Tag, "drydock/build:")
}

func TestSourceDigest_Stable(t *testing.T) {
	src := sourceTree(t)

	d1, err := SourceDigest(src)
	require.NoError(t, err)
	d2, err := SourceDigest(src)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestSourceDigest_ChangesWithDescriptor(t *testing.T) {
	src := sourceTree(t)

	d1, err := SourceDigest(src)
	require.NoError(t, err)

	src.Descriptor = "Dockerfile.alt"
	d2, err := SourceDigest(src)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestCache(t *testing.T) {
	cache := NewCache()
	src := sourceTree(t)
	id, err := SourceDigest(src)
	require.NoError(t, err)

	assert.Nil(t, cache.Get(id))

	a := &Artifact{ID: id, Tag: "t"}
	cache.Put(a)
	assert.Same(t, a, cache.Get(id))
	assert.Equal(t, 1, cache.Len())

	cache.Remove(id)
	assert.Nil(t, cache.Get(id))
	assert.Equal(t, 0, cache.Len())
}

func TestArtifact_Ref(t *testing.T) {
	a := &Artifact{Tag: "drydock/test:1", ID: "sha256:abc"}
	assert.Equal(t, "drydock/test:1", a.Ref())

	a.Tag = ""
	assert.Equal(t, "sha256:abc", a.Ref())
}
