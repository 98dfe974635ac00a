// Package engine abstracts an asynchronous SQL query engine behind a narrow
// submit/poll/fetch interface.
//
// The engine executes statements out-of-band: Submit returns an opaque query
// handle, Poll reports progress until a terminal state is reached, and Fetch
// pages through the result rows of a succeeded query. Wait wraps the polling
// into a bounded exponential-backoff loop so callers never block indefinitely
// on an engine that stops reporting; the distinguishable ErrWaitTimeout tells
// operators to check engine-side health rather than input validity.
//
// The production implementation targets Amazon Athena. Testing implementations
// live in core/engine/mocks.
package engine
