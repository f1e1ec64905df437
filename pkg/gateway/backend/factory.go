package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/rpc"
)

// Config selects and configures a backend implementation.
type Config struct {
	// Mock selects the in-memory backend instead of the live one.
	Mock bool
	// Endpoint is the XML-RPC URL of the control server, e.g.
	// "http://localhost:8081/RPC2". Required unless Mock is set.
	Endpoint string
	// Timeout bounds each remote call. Zero means rpc.DefaultTimeout.
	Timeout time.Duration
	// Retries re-issues transport-kind failures this many times.
	Retries int
}

// New creates the backend selected by cfg. Selection happens once at
// process start; the returned Backend is used for the process lifetime.
// When reg is non-nil the live transport is instrumented with call
// metrics and structured call events.
func New(cfg Config, logger *zap.Logger, reg prometheus.Registerer) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mock {
		logger.Info("using mock backend")
		return NewMock(), nil
	}

	if cfg.Endpoint == "" {
		return nil, apierr.New(apierr.KindValidation, "rpc endpoint is required for the live backend", nil)
	}

	client, err := rpc.NewClient(cfg.Endpoint,
		rpc.WithTimeout(cfg.Timeout),
		rpc.WithRetries(cfg.Retries),
	)
	if err != nil {
		return nil, err
	}

	var caller rpc.Caller = client
	if reg != nil {
		caller = rpc.NewInstrumented(client, logger, rpc.NewMetrics(reg))
	}
	return NewLive(caller, logger), nil
}
