package usecases

import "context"

type originKey struct{}

// WithOrigin tags writes made with ctx. The tag is carried on the zone
// events they publish.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

func originFrom(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
