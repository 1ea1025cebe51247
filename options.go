// Copyright (c) HashiCorp, Inc.

package query

import "log/slog"

// options carries every knob this package's constructors accept. It is
// resolved once, at construction time, and never mutated afterward.
type options struct {
	withAdvancedQueryParam string
	withFreetextParam      string
	withLogger             *slog.Logger
	withMetrics            MetricsRecorder
}

// Option configures a BoundQuery via functional options.
type Option func(*options) error

func getDefaultOptions() options {
	return options{
		withAdvancedQueryParam: "query",
		withFreetextParam:      "term",
		withLogger:             slog.Default(),
		withMetrics:            NoopRecorder{},
	}
}

func getOpts(opt ...Option) (options, error) {
	opts := getDefaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// WithAdvancedQueryParam overrides the reserved request parameter name that
// carries the advanced query text. Defaults to "query".
func WithAdvancedQueryParam(name string) Option {
	return func(o *options) error {
		if name == "" {
			return ErrInvalidParameter
		}
		o.withAdvancedQueryParam = name
		return nil
	}
}

// WithFreetextParam overrides the reserved request parameter name that
// carries the freetext search term. Defaults to "term".
func WithFreetextParam(name string) Option {
	return func(o *options) error {
		if name == "" {
			return ErrInvalidParameter
		}
		o.withFreetextParam = name
		return nil
	}
}

// WithLogger supplies the *slog.Logger a BoundQuery uses to report parse
// and lowering failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return ErrInvalidParameter
		}
		o.withLogger = l
		return nil
	}
}

// WithMetrics supplies a MetricsRecorder a BoundQuery reports parse and
// lowering outcomes to. Defaults to a no-op recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) error {
		if m == nil {
			return ErrInvalidParameter
		}
		o.withMetrics = m
		return nil
	}
}
