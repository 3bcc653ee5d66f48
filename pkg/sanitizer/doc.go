// Package sanitizer normalizes slot request input before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle odd input gracefully and leave rejection to the
// validator.
//
// Normalization includes:
//   - Identifiers: trim surrounding whitespace, collapse inner runs of whitespace
//   - Index sets: remove duplicates and sort ascending
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
