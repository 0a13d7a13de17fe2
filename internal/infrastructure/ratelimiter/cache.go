package ratelimiter

// GetterSetter is the limiter's per-source state store. The in-memory
// implementation is the default; a shared cache can be swapped in when
// limits must hold across instances.
type GetterSetter interface {
	Get(key string) (*Bucket, bool)
	Set(key string, bucket *Bucket)
}
