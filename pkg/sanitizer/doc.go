// Package sanitizer provides cell-level normalization functions for contact data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions never fail: input that cannot be normalized is returned
// unchanged rather than dropped, so no contact data is lost.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number]) using a default region
//   - Strings: Trim leading/trailing spaces, collapse inner whitespace
//   - Titles: Title case with English word rules - "senior SALES manager" becomes "Senior Sales Manager"
//   - Emails: Trim and lowercase
package sanitizer
