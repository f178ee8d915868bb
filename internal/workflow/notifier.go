package workflow

import "log"

// Notifier surfaces the outcome of a transition to whoever is watching. The
// server wires this to the websocket hub; tests record calls.
type Notifier interface {
	Success(propertyID, message string)
	Error(propertyID, message string)
}

type LogNotifier struct{}

func (LogNotifier) Success(propertyID, message string) {
	log.Printf("workflow: %s: %s", propertyID, message)
}

func (LogNotifier) Error(propertyID, message string) {
	log.Printf("workflow: %s: error: %s", propertyID, message)
}
