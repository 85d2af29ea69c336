package lpc

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger. It is disabled by default;
// callers that want visibility into mailbox and dispatch events wire up a
// real logger via UseLogger, following the same convention the teacher
// repository uses for its actor package.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
