// Package manifest parses and serializes the line-oriented sample list
// that enumerates the dataset. Each line is
//
//	path|speaker|language|transcript
//
// Serialization is byte-stable for entries that were not modified, so a
// parse/serialize round trip of an untouched manifest reproduces the
// input exactly.
package manifest
