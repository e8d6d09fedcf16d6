package requester

import (
	"go.uber.org/fx"
)

// Module provides the requester module dependencies
var Module = fx.Module("requester",
	fx.Provide(
		fx.Annotate(
			NewSystemClock,
			fx.As(new(Clock)),
		),
		fx.Annotate(
			NewHTTPClient,
			fx.As(new(Doer)),
		),
		NewHTTPRequestBuilder,
		NewTimeoutClient,
		NewFetcher,
	),
)
