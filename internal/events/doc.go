// Package events carries domain events from services to the components that
// react to them after a transaction commits.
//
// Services publish through the EventEmitter interface without knowing which
// handlers exist. The notification dispatcher and the background job handler
// both register with the in-memory emitter at startup.
package events
