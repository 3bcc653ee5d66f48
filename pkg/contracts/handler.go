package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every component that owns HTTP routes.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Stopper is a background worker the application stops during shutdown.
type Stopper interface {
	Stop()
}
