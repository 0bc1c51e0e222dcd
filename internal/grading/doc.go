// Package grading holds the pure computations shared by every gradebook view:
// attendance aggregation, the blended course grade, and weekly schedule
// conflict detection. Nothing in this package touches storage.
package grading
