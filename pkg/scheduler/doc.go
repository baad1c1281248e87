// Package scheduler runs periodic maintenance on cron schedules.
//
// The serve command registers up to three jobs:
//
//	sched := scheduler.New()
//	sched.Add("log-rotation", cfg.Logging.RotateSchedule, rotateLogs)
//	sched.Add("ratelimit-cleanup", "* * * * *", limiter.Cleanup)
//	sched.Add("seo-process", cfg.SEO.Schedule, runDriver)
//	sched.Start(ctx)
//
// Jobs with an empty schedule are skipped. Schedules use the standard
// five-field cron syntax plus descriptors such as "@hourly".
package scheduler
