// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// from files with a given extension.
//
// Normalisers are registered with a Registry at startup. Files without a
// dedicated normaliser fall through to the plain text decoder.
package normalisers
