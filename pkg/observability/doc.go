/*
Package observability provides tools for monitoring the checklist skill.

It includes Prometheus metrics fed by the controller's lifecycle hooks and an event
stream that fans lifecycle notifications out to live subscribers (used by the SSE
endpoint of the HTTP front-end).
*/
package observability
