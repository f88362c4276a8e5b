// Package sanitizer provides input normalization for operator-entered text.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// returning empty strings rather than errors.
//
// Booking labels, notes, and patient display names pass through here before
// validation and storage so stray whitespace and control characters from
// front-desk input never reach the database.
package sanitizer
