// Package domain defines users, tasks, shares, comments, attachments and
// activity entries along with their validation rules. It imports nothing
// from the storage or transport layers.
package domain
