package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type rateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c so that CreateMessage calls share a limit of
// perSecond requests per second. A non-positive limit returns c unchanged.
func WithRateLimit(c Client, perSecond float64) Client {
	if perSecond <= 0 {
		return c
	}
	return &rateLimitedClient{
		next:    c,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (c *rateLimitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "anthropic: rate limit wait")
	}
	return c.next.CreateMessage(ctx, req)
}
