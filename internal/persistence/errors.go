package persistence

import "errors"

var errNoRun = errors.New("no active run: call BeginRun first")
