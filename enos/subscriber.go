package enos

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                chan struct{}
	runStartedHandler   func(RunStarted)
	epochFlushedHandler func(EpochFlushed)
	modeDoneHandler     func(ModeDone)
	runDoneHandler      func(RunDone)
	runErrorHandler     func(RunError)
}

// OnRunStarted sets the handler for RunStarted events
func OnRunStarted(fn func(RunStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runStartedHandler = fn }
}

// OnEpochFlushed sets the handler for EpochFlushed events
func OnEpochFlushed(fn func(EpochFlushed)) func(*Subscriber) {
	return func(s *Subscriber) { s.epochFlushedHandler = fn }
}

// OnModeDone sets the handler for ModeDone events
func OnModeDone(fn func(ModeDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.modeDoneHandler = fn }
}

// OnRunDone sets the handler for RunDone events
func OnRunDone(fn func(RunDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.runDoneHandler = fn }
}

// OnRunError sets the handler for RunError events
func OnRunError(fn func(RunError)) func(*Subscriber) {
	return func(s *Subscriber) { s.runErrorHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits until every event has been handled.
//
//	closer := enos.NewSubscriber(events,
//	  enos.OnRunDone(func(e enos.RunDone) { ... }),
//	)
//	defer closer()
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                make(chan struct{}),
		runStartedHandler:   func(RunStarted) {},
		epochFlushedHandler: func(EpochFlushed) {},
		modeDoneHandler:     func(ModeDone) {},
		runDoneHandler:      func(RunDone) {},
		runErrorHandler:     func(RunError) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case RunStarted:
				s.runStartedHandler(e)
			case EpochFlushed:
				s.epochFlushedHandler(e)
			case ModeDone:
				s.modeDoneHandler(e)
			case RunDone:
				s.runDoneHandler(e)
			case RunError:
				s.runErrorHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
