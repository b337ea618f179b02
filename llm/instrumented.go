package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "a11yoverlay/llm"

// Recorder 记录模型调用指标，由 internal/metrics.Collector 实现
type Recorder interface {
	RecordModelRequest(provider, model, operation, status string, duration time.Duration)
}

// instrumented 为 Provider 添加指标、span 与调试日志
type instrumented struct {
	Provider
	recorder Recorder
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Instrument 包装 p。recorder 可为 nil。
func Instrument(p Provider, recorder Recorder, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{
		Provider: p,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
		logger:   logger.With(zap.String("component", "llm"), zap.String("provider", p.Name())),
	}
}

func (i *instrumented) Vision(ctx context.Context, req *VisionRequest) (*Response, error) {
	ctx, span := i.start(ctx, "vision", req.Options)
	defer span.End()
	span.SetAttributes(attribute.Int("llm.image_base64_bytes", len(req.ImageBase64)))

	start := time.Now()
	resp, err := i.Provider.Vision(ctx, req)
	i.finish(span, "vision", start, resp, err)
	return resp, err
}

func (i *instrumented) Generate(ctx context.Context, req *GenerateRequest) (*Response, error) {
	ctx, span := i.start(ctx, "generate", req.Options)
	defer span.End()

	start := time.Now()
	resp, err := i.Provider.Generate(ctx, req)
	i.finish(span, "generate", start, resp, err)
	return resp, err
}

func (i *instrumented) start(ctx context.Context, op string, opts Options) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "llm."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", i.Name()),
			attribute.String("llm.model", i.Model()),
			attribute.Float64("llm.temperature", opts.Temperature),
		),
	)
}

func (i *instrumented) finish(span trace.Span, op string, start time.Time, resp *Response, err error) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Warn("model request failed",
			zap.String("operation", op),
			zap.Duration("latency", elapsed),
			zap.Error(err))
	} else {
		span.SetAttributes(attribute.Int("llm.response_chars", len(resp.Content)))
		i.logger.Debug("model request completed",
			zap.String("operation", op),
			zap.Duration("latency", elapsed),
			zap.Int("response_chars", len(resp.Content)))
	}
	if i.recorder != nil {
		i.recorder.RecordModelRequest(i.Name(), i.Model(), op, status, elapsed)
	}
}
