package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/config"
)

// Sink receives chart descriptors. Rendering is a terminal side effect; the
// only thing reported back is failure.
type Sink interface {
	Render(ctx context.Context, c *Chart) error
}

// ErrUnknownSink is returned by New for a sink name it does not know.
var ErrUnknownSink = errors.New("unknown chart sink")

// None discards every chart.
type None struct{}

// Render implements Sink.
func (None) Render(context.Context, *Chart) error { return nil }

// New builds the sink selected by cfg.Sink.
func New(ctx context.Context, cfg config.ChartsConfig, log logrus.FieldLogger) (Sink, error) {
	switch cfg.Sink {
	case "png":
		return NewPNG(cfg.Dir, cfg.Width, cfg.Height, log), nil
	case "mermaid":
		return NewMermaidDir(cfg.Dir, log), nil
	case "s3":
		return NewS3(ctx, cfg, log)
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Sink)
	}
}
