// Package policyscout provides a privacy-policy discovery and retrieval
// engine. Given a website root URL it generates candidate policy URLs,
// fetches them concurrently under a strict time budget, scores each page
// for privacy-policy likelihood, and returns the best match together with
// its source URL. Sites that gate content behind JavaScript are retried
// through a headless-browser fallback.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, rod/, goquery/, lru/).
package policyscout
