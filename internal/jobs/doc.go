// Package jobs runs side effects that must not block or fail an HTTP
// request, such as removing attachment blobs after their rows are deleted.
// Jobs are held in a bounded in-memory queue and executed by a fixed pool of
// workers; submission never blocks.
package jobs
