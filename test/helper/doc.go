// Package helper provides test fixtures and assertion utilities for the circulation engine.
//
// Fixtures follow a Given/Query naming scheme: Given functions seed rows
// through the active database wrapper, Query functions read state back for
// assertions. All fixtures fail the test immediately on database errors.
package helper
