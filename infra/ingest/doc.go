// Package ingest reads already geocoded pharmacies and streets from disk.
//
// Two formats are accepted for each input, selected by file extension:
// the JSON cache produced by the geocoding step (.json or .poppy) and a
// semicolon separated CSV with a header row. Streets left at the origin by
// the geocoder can be completed from a hand-made CSV of missing streets and
// every street outside the city bounding box is dropped.
package ingest
