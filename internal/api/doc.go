// Package api exposes the task service over HTTP: chi routing, JSON
// request binding and validation, and the mapping from service errors to
// status codes. Handlers hold no business rules of their own.
package api
