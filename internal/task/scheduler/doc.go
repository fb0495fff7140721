// Package scheduler fires named jobs on cron, daily or interval triggers.
//
// A job that is still running when its next trigger fires is skipped for
// that tick. Jobs run with their own timeout and are never retried here.
package scheduler
