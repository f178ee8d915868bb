package session

import "errors"

var ErrNoSession = errors.New("session: no active session")
