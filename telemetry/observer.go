package telemetry

import (
	"time"

	"github.com/amp-labs/eventual/actor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/amp-labs/eventual/actor"

// TracingObserver records one span per executed message, spanning from the
// moment the message started to when it finished, plus short spans for
// settled promises and actor faults.
type TracingObserver struct {
	actor.NopObserver

	tracer trace.Tracer
}

// NewTracingObserver creates an observer that records spans with tracer. A nil
// tracer uses the global tracer provider.
func NewTracingObserver(tracer trace.Tracer) *TracingObserver {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &TracingObserver{tracer: tracer}
}

func (o *TracingObserver) MessageExecuted(msg *actor.EventualMessage, elapsed time.Duration, err error) {
	target := msg.Target()
	start := msg.StartedAt()

	attrs := []attribute.KeyValue{
		attribute.String("actor.runtime", target.Runtime().Name()),
		attribute.Int64("actor.id", id(target.ID())),
		attribute.Int64("actor.message.id", id(msg.ID())),
		attribute.String("actor.message.selector", msg.Selector()),
		attribute.Bool("actor.message.one_way", msg.Promise() == nil),
	}

	if sender := msg.Sender(); sender != nil {
		attrs = append(attrs, attribute.Int64("actor.sender.id", id(sender.ID())))
	}

	if sent := msg.SentAt(); !sent.IsZero() {
		attrs = append(attrs, attribute.Int64("actor.message.queue_time_us", start.Sub(sent).Microseconds()))
	}

	_, span := o.tracer.Start(target.Runtime().Context(), "actor.message "+msg.Selector(),
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End(trace.WithTimestamp(start.Add(elapsed)))
}

func (o *TracingObserver) PromiseSettled(p *actor.Promise) {
	state, _ := p.Result()

	_, span := o.tracer.Start(p.Owner().Runtime().Context(), "actor.promise.settle",
		trace.WithAttributes(
			attribute.Int64("actor.promise.id", id(p.ID())),
			attribute.Int64("actor.id", id(p.Owner().ID())),
			attribute.String("actor.promise.state", state.String()),
		))

	if state == actor.Erroneous {
		span.SetStatus(codes.Error, "promise settled as erroneous")
	}

	span.End()
}

func (o *TracingObserver) ActorFaulted(a *actor.Actor, err error) {
	_, span := o.tracer.Start(a.Runtime().Context(), "actor.fault",
		trace.WithAttributes(attribute.Int64("actor.id", id(a.ID()))))

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

// id converts an actor id for attributes. Ids are sequential and stay far below MaxInt64.
func id(v uint64) int64 {
	return int64(v) //nolint:gosec
}

var _ actor.Observer = (*TracingObserver)(nil)
