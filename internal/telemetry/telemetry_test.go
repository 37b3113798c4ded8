package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/naksh1414/Kata-library-Management-System/internal/library"
)

func TestSetupRecordsLibrarySpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := Setup(context.Background(), Config{ServiceName: "library-test"}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	lib, err := library.New()
	require.NoError(t, err)
	_, err = lib.AddBook(context.Background(), "k", "T", "A", 2000)
	require.NoError(t, err)
	_, err = lib.AddBook(context.Background(), "k", "T", "A", 2000)
	require.Error(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "library.add_book", ended[0].Name())
	assert.Len(t, ended[1].Events(), 1, "the failed call records its error")

	assert.Contains(t, ended[0].Resource().String(), "library-test")

	require.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Endpoint: "http://127.0.0.1:4318"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
