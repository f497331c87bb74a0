package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWithRateLimit_DisabledReturnsSameClient(t *testing.T) {
	mc := new(MockClient)
	assert.Same(t, mc, WithRateLimit(mc, 0))
	assert.Same(t, mc, WithRateLimit(mc, -1))
}

func TestWithRateLimit_Delegates(t *testing.T) {
	mc := new(MockClient)
	resp := &MessageResponse{ID: "msg_1"}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(resp, nil).Twice()

	c := WithRateLimit(mc, 1000)
	for range 2 {
		got, err := c.CreateMessage(context.Background(), MessageRequest{Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, "msg_1", got.ID)
	}
	mc.AssertExpectations(t)
}

func TestWithRateLimit_ContextCanceled(t *testing.T) {
	mc := new(MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{}, nil).Once()

	c := WithRateLimit(mc, 0.001)
	_, err := c.CreateMessage(context.Background(), MessageRequest{})
	require.NoError(t, err)

	// The burst is spent; the next token is far in the future.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.CreateMessage(ctx, MessageRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	mc.AssertNumberOfCalls(t, "CreateMessage", 1)
}
