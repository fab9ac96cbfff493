// Package createdat provides best-effort attribution of a media file's capture timestamp.
//
// Images are attributed from embedded metadata tags when one of them parses, then from the
// filesystem modification time. Videos only use the modification time. Failures never
// surface as errors: they collapse to the next source and finally to ProvenanceNone.
package createdat
