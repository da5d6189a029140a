// Package api exposes the query scheduler over HTTP. It lets an external
// host submit queries, report entity disconnects and read back the results
// delivered on each tick.
package api
