package querycache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, outside its lock.
type Hooks interface {
	// Fresh data was served without fetching.
	CacheHit(key string)

	// A caller attached to an in-flight fetch instead of starting one.
	FlightJoined(key string)

	// An attempt is about to call the fetcher. attempt starts at 1.
	FetchStarted(key string, attempt int)

	// An attempt failed and another one will follow.
	FetchRetried(key string, attempt int, err error)

	// All attempts failed; err is recorded on the entry.
	FetchFailed(key string, attempts int, err error)

	// The flight ended by cancellation; the entry is unchanged.
	FetchCanceled(key string)

	// The key was invalidated while the flight ran; its result was not stored.
	CommitSkipped(key string)

	// Invalidate removed the entry for key.
	Invalidated(key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                 {}
func (NopHooks) FlightJoined(string)             {}
func (NopHooks) FetchStarted(string, int)        {}
func (NopHooks) FetchRetried(string, int, error) {}
func (NopHooks) FetchFailed(string, int, error)  {}
func (NopHooks) FetchCanceled(string)            {}
func (NopHooks) CommitSkipped(string)            {}
func (NopHooks) Invalidated(string)              {}
