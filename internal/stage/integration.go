package stage

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
	"github.com/tjfontaine/drydock/internal/mathapi"
)

// Integration exercises the service's HTTP surface in-process against a
// test server, isolating the handler wiring from container concerns. It
// runs the same case table as the system stage.
type Integration struct {
	cases  []HTTPCase
	logger *slog.Logger
}

// NewIntegration creates the integration stage. Nil cases default to the
// standard table.
func NewIntegration(cases []HTTPCase, logger *slog.Logger) *Integration {
	if cases == nil {
		cases = DefaultHTTPCases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Integration{cases: cases, logger: logger}
}

var _ engine.Runner = (*Integration)(nil)

func (i *Integration) Name() string           { return "integration-tests" }
func (i *Integration) Kind() engine.StageKind { return engine.KindIntegration }
func (i *Integration) Required() bool         { return true }

func (i *Integration) Run(ctx context.Context, art *artifact.Artifact) engine.StageResult {
	srv := httptest.NewServer(mathapi.NewHandler(i.logger).Routes())
	defer srv.Close()

	results := RunHTTPCases(ctx, http.DefaultClient, srv.URL, i.cases)
	return assess(results)
}
