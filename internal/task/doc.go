// Package task schedules SQL queries on a fixed pool of persistent
// connections without blocking the caller. Queries are queued in submission
// order, a dispatcher binds the oldest pending query to an idle connection,
// a worker runs it, and the host's per-tick call to OnTick hands the
// outcome to a registered callback before retiring the task.
package task
