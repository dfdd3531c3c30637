package tracker

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                chan struct{}
	pollStartedHandler  func(PollingStarted)
	syncHandler         func(SyncCompleted)
	syncErrorHandler    func(SyncError)
	pollShutdownHandler func(PollingShutdown)
}

// OnPollingStarted sets the handler for PollingStarted events
func OnPollingStarted(fn func(PollingStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollStartedHandler = fn }
}

// OnSyncCompleted sets the handler for SyncCompleted events
func OnSyncCompleted(fn func(SyncCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.syncHandler = fn }
}

// OnSyncError sets the handler for SyncError events
func OnSyncError(fn func(SyncError)) func(*Subscriber) {
	return func(s *Subscriber) { s.syncErrorHandler = fn }
}

// OnPollingShutdown sets the handler for PollingShutdown events
func OnPollingShutdown(fn func(PollingShutdown)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollShutdownHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := tracker.NewSubscriber(events,
//	  tracker.OnSyncCompleted(func(e tracker.SyncCompleted) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
//
// Handlers run on the dispatch goroutine, one event at a time.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                make(chan struct{}),
		pollStartedHandler:  func(PollingStarted) {},  // nop by default
		syncHandler:         func(SyncCompleted) {},   // nop by default
		syncErrorHandler:    func(SyncError) {},       // nop by default
		pollShutdownHandler: func(PollingShutdown) {}, // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case PollingStarted:
				s.pollStartedHandler(e)
			case SyncCompleted:
				s.syncHandler(e)
			case SyncError:
				s.syncErrorHandler(e)
			case PollingShutdown:
				s.pollShutdownHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
