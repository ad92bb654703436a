package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/amp-labs/eventual/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type greeter struct{}

func messageSpans(recorder *tracetest.SpanRecorder, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan

	for _, span := range recorder.Ended() {
		if span.Name() == name {
			out = append(out, span)
		}
	}

	return out
}

func TestTracingObserverRecordsMessages(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	dispatcher := actor.NewDispatcher(
		actor.Handle("greet", func(_ context.Context, _ *actor.Actor, _ greeter, args []any) (any, error) {
			return "hello " + args[0].(string), nil //nolint:forcetypeassert
		}),
		actor.Handle("fail", func(context.Context, *actor.Actor, greeter, []any) (any, error) {
			return nil, actor.Raise("boom")
		}),
	)

	cfg := actor.DefaultConfig()
	cfg.Name = "tracing-test"
	cfg.TrackTimestamps = true

	rt := actor.New(dispatcher,
		actor.WithConfig(cfg),
		actor.WithObserver(NewTracingObserver(provider.Tracer("test"))))

	require.NoError(t, rt.Start(t.Context(), 2))

	t.Cleanup(func() {
		_ = rt.Shutdown(time.Second)
	})

	ref, err := rt.CreateActor(greeter{})
	require.NoError(t, err)

	main := rt.Main()

	greeting, err := rt.Send(main, "greet", ref, "world")
	require.NoError(t, err)

	failure, err := rt.Send(main, "fail", ref)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	value, err := greeting.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", value)

	_, err = failure.Await(ctx)
	require.Error(t, err)

	greets := messageSpans(recorder, "actor.message greet")
	require.Len(t, greets, 1)
	assert.Equal(t, codes.Unset, greets[0].Status().Code)
	assert.False(t, greets[0].StartTime().After(greets[0].EndTime()))

	fails := messageSpans(recorder, "actor.message fail")
	require.Len(t, fails, 1)
	assert.Equal(t, codes.Error, fails[0].Status().Code)

	attrs := map[string]bool{}
	for _, kv := range greets[0].Attributes() {
		attrs[string(kv.Key)] = true
	}

	assert.True(t, attrs["actor.message.selector"])
	assert.True(t, attrs["actor.message.queue_time_us"])
}
