package retrycache

import "github.com/curviron/master/internal/rpcerr"

// Decision tells the dispatcher what to do about a request that has been
// seen before, before the handler runs again.
type Decision struct {
	// Replay is true when the cached Reply/Err should be returned directly
	// without invoking the handler.
	Replay bool
	Reply  []byte
	Err    *rpcerr.MasterError
}

// StatusReplay implements the retry policy for handlers whose effect is
// only safe to run once: if a prior attempt succeeded, the handler must not
// run again, but the reply it returns is not cached bytes — it is the
// target path's current status, fetched fresh by the caller. A prior
// failure is replayed verbatim since no state change needs re-describing.
// Used by CreateFile, where re-running the handler on retry could allocate
// a second file under the same path.
func StatusReplay(entry Entry) Decision {
	switch entry.Outcome {
	case Succeeded:
		return Decision{Replay: true}
	case Failed:
		return Decision{Replay: true, Err: entry.Err}
	default:
		return Decision{}
	}
}

// SuccessAssert implements the retry policy for handlers whose effect is
// already applied once it succeeds (Delete, Rename, SetAttr, Symlink): if
// the prior attempt succeeded, the cached success reply is returned without
// re-running the handler, which would otherwise fail with a not-found or
// conflict error caused solely by the effect already having happened. Any
// other prior outcome gives no replay, so the handler runs again.
func SuccessAssert(entry Entry) Decision {
	if entry.Outcome == Succeeded {
		return Decision{Replay: true, Reply: entry.Reply}
	}
	return Decision{}
}

// RejectOnRetry implements the retry policy for handlers whose effect
// cannot be safely replayed OR re-run (AppendFile): any repeat of a
// request ID that has already been seen is rejected outright rather than
// replayed or re-executed, since appending the same bytes twice would
// corrupt the file.
func RejectOnRetry(entry Entry, operation, subject string) Decision {
	if entry.Outcome == Absent {
		return Decision{}
	}
	return Decision{Replay: true, Err: rpcerr.RetryConflictErr(operation, subject)}
}

// NoRetryDetection is the policy for handlers that do not participate in
// retry tracking at all (most read-only operations): the dispatcher always
// runs the handler fresh. It exists so dispatch code can name the policy
// explicitly instead of special-casing "no policy" as an implicit default.
func NoRetryDetection(Entry) Decision {
	return Decision{}
}
