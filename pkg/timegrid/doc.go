// Package timegrid derives calendar grid cells and drives the calendar
// cursor. It is pure date arithmetic over absolute timestamps: cells carry
// half-open [start, end) bounds in the clinic's location, and nothing in
// here compares hour labels as strings, so noon/midnight need no special
// casing anywhere.
package timegrid
