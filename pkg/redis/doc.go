// Package redis connects to Redis and provides a small key-claim primitive
// used for at-most-once processing of external events.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	claims := redis.NewClaimer(client, "webhook:", 72*time.Hour)
//	first, err := claims.Claim(ctx, eventID)
//
// Redis is optional for the service: callers check Config.Enabled and fall
// back to in-process alternatives when it is empty.
package redis
