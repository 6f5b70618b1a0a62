package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

// Runner is a background loop that stops when its context ends.
type Runner interface {
	Run(ctx context.Context) error
}

type ServerParams struct {
	Addr            string
	Handler         http.Handler
	Logger          *logger.Logger
	Background      []Runner
	Closers         []io.Closer
	ShutdownTimeout time.Duration
}

// Server owns the HTTP listener together with the loops and resources that share its lifetime.
type Server struct {
	http            *http.Server
	logg            *logger.Logger
	background      []Runner
	closers         []io.Closer
	shutdownTimeout time.Duration
}

func NewServer(params ServerParams) (*Server, error) {
	if params.Handler == nil {
		return nil, errors.New("handler required")
	}
	if params.Addr == "" {
		return nil, errors.New("addr required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &Server{
		http: &http.Server{
			Addr:              params.Addr,
			Handler:           params.Handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logg:            logg,
		background:      params.Background,
		closers:         params.Closers,
		shutdownTimeout: timeout,
	}, nil
}

// Run serves until ctx is cancelled or the listener fails, then drains in-flight
// requests and closes the registered resources.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logg.Info(gctx, "http listener starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	for _, runner := range s.background {
		runner := runner
		g.Go(func() error {
			if err := runner.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		s.logg.Info(shutdownCtx, "http listener draining")
		return s.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	for _, closer := range s.closers {
		if closer == nil {
			continue
		}
		err = multierr.Append(err, closer.Close())
	}
	return err
}
