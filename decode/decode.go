// Package decode holds the binary-decode collaborators consumed by the
// pipeline's format detector: page-document text extraction, mail
// container parsing, and HTML text extraction.
package decode
