package observability

// NoOpObserver discards every operation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveOperation(OperationContext) {}

// NewNoOpObserver returns an Observer that discards every operation.
func NewNoOpObserver() Observer {
	return NoOpObserver{}
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(OperationContext)

func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

// Multi fans every operation out to observers, skipping nil entries.
func Multi(observers ...Observer) Observer {
	var live []Observer
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	return multi(live)
}

type multi []Observer

func (m multi) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}

// Status returns "error" when ctx carries an error and "ok" otherwise.
func (ctx OperationContext) Status() string {
	if ctx.Error != nil {
		return "error"
	}
	return "ok"
}
