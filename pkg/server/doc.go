// Package server provides the administrative HTTP surface.
//
// # Routes
//
// Every /api route answers with {"success": bool, "data": ..., "error": ...}.
//
//	GET    /api/logs?level=&source=&search=&page=   filtered log page, 50 per page, newest first
//	GET    /api/logs/raw?lines=N                    raw log download (all lines when N is 0)
//	DELETE /api/logs                                clear the log
//	POST   /api/logs/rotate                         rotate when over the size ceiling
//	GET    /api/ratelimits                          status of every known provider
//	GET    /api/ratelimits/{provider}               status of one provider
//	PUT    /api/ratelimits/{provider}               persist a ceiling: {"limit": 90}
//	POST   /api/ratelimits/{provider}/reset         clear the current window
//	GET    /health                                  liveness plus provider health
//	GET    /ready                                   component readiness checks
//	GET    /version                                 build information
//	GET    /metrics                                 Prometheus metrics
//
// When server.admin_token is set, /api routes require
// "Authorization: Bearer <token>" and log actions as user "admin".
package server
