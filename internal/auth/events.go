package auth

import "log"

// Events receives notifications about best-effort steps of the login flow.
// These outcomes never fail the flow; they are reported here so operators
// still see them without conflating them with fatal errors.
type Events interface {
	TokenUpgradeFailed(err error)
	ProfileFetchFailed(err error)
	LoginCancelled()
}

// logEvents is the default sink, writing to the standard logger.
type logEvents struct{}

func (logEvents) TokenUpgradeFailed(err error) {
	log.Printf("auth: long-lived token upgrade failed, keeping short-lived token: %v", err)
}

func (logEvents) ProfileFetchFailed(err error) {
	log.Printf("auth: profile fetch failed, keeping cached profile: %v", err)
}

func (logEvents) LoginCancelled() {
	log.Println("auth: login cancelled by user")
}

// DefaultEvents logs every event via the standard logger.
var DefaultEvents Events = logEvents{}
