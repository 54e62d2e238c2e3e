// Package normalize strips non-substantive markup from extracted text.
//
// Normalization runs only on final output strings, never on intermediate
// reconstruction states, so stripped markup can never corrupt delta
// application.
package normalize
