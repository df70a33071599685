package stage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/executor"
)

// ServiceInstance is one running copy of a built artifact.
type ServiceInstance interface {
	// BaseURL is the root URL the instance serves on, without a trailing
	// slash.
	BaseURL() string
	// Stop tears the instance down. It must be safe to call exactly once
	// and must release the instance's port.
	Stop(ctx context.Context) error
}

// Launcher starts service instances from artifacts.
type Launcher interface {
	Launch(ctx context.Context, art *artifact.Artifact) (ServiceInstance, error)
}

// DockerLauncher runs artifacts as containers publishing the artifact's
// port on a configurable host address.
type DockerLauncher struct {
	runner executor.Runner
	host   string
	grace  time.Duration
	logger *slog.Logger
}

// NewDockerLauncher creates a launcher publishing instances on host. An
// empty host defaults to 127.0.0.1; a nil runner defaults to local command
// execution.
func NewDockerLauncher(runner executor.Runner, host string, logger *slog.Logger) *DockerLauncher {
	if runner == nil {
		runner = executor.NewLocal()
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerLauncher{
		runner: runner,
		host:   host,
		grace:  10 * time.Second,
		logger: logger,
	}
}

var _ Launcher = (*DockerLauncher)(nil)

// Launch starts a container publishing the artifact's port. A bound host
// port is reported as *PortConflictError before any container starts. The
// container process is started detached from the run context so a
// cancelled run still gets a clean Stop instead of an orphaned instance.
func (l *DockerLauncher) Launch(ctx context.Context, art *artifact.Artifact) (ServiceInstance, error) {
	addr := fmt.Sprintf("%s:%d", l.host, art.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &PortConflictError{Port: art.Port, Err: err}
	}
	ln.Close()

	name := fmt.Sprintf("drydock-%s", uuid.New().String()[:8])
	proc, err := l.runner.Start(context.WithoutCancel(ctx), executor.Command{
		Program: "docker",
		Args: []string{
			"run", "--rm",
			"--name", name,
			"-p", fmt.Sprintf("%s:%d:%d", l.host, art.Port, art.Port),
			art.Ref(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("docker run %s: %w", art.Ref(), err)
	}

	l.logger.Info("instance launched",
		slog.String("container", name),
		slog.String("image", art.Ref()),
		slog.String("addr", addr))

	return &dockerInstance{
		proc:    proc,
		name:    name,
		baseURL: fmt.Sprintf("http://%s", addr),
		grace:   l.grace,
		logger:  l.logger,
	}, nil
}

type dockerInstance struct {
	proc    executor.Process
	name    string
	baseURL string
	grace   time.Duration
	logger  *slog.Logger
}

func (i *dockerInstance) BaseURL() string { return i.baseURL }

// Stop terminates the container process. SIGTERM reaches the container
// through the docker client's signal proxying; --rm removes it on exit.
func (i *dockerInstance) Stop(ctx context.Context) error {
	i.logger.Info("stopping instance", slog.String("container", i.name))
	if err := i.proc.Stop(ctx, i.grace); err != nil {
		return fmt.Errorf("stop %s: %w", i.name, err)
	}
	return nil
}
