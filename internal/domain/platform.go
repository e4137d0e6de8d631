package domain

// Platform identifies the prediction-market platform a market originates from.
type Platform string

// Supported platforms.
const (
	PlatformKalshi     Platform = "kalshi"
	PlatformManifold   Platform = "manifold"
	PlatformMetaculus  Platform = "metaculus"
	PlatformPolymarket Platform = "polymarket"
)

// AllPlatforms lists every supported platform in stable order.
var AllPlatforms = []Platform{
	PlatformKalshi,
	PlatformManifold,
	PlatformMetaculus,
	PlatformPolymarket,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformKalshi, PlatformManifold, PlatformMetaculus, PlatformPolymarket:
		return true
	}
	return false
}
