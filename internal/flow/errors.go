package flow

import "errors"

// ErrNoActiveSession is returned when a flow handler is invoked for a
// phone whose session expired or was cleared concurrently. Callers
// recover by treating the turn as idle-menu input.
var ErrNoActiveSession = errors.New("no active conversation session")
