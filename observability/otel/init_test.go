package otel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization = Bearer abc ,x-team=vouchers,,broken, =skip")
	require.Equal(t, map[string]string{
		"authorization": "Bearer abc",
		"x-team":        "vouchers",
	}, headers)
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "voucherd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{Endpoint: "localhost:4318"})
	require.Error(t, err)
}

func TestSamplerDescription(t *testing.T) {
	require.True(t, strings.Contains(Sampler(0).Description(), "AlwaysOnSampler"))
	require.True(t, strings.Contains(Sampler(0.25).Description(), "TraceIDRatioBased{0.25}"))
}
