// Package normalize maps heterogeneous venue trade payloads into the
// canonical model.Trade record.
//
// Each canonical field is resolved from an ordered list of candidate
// source keys (first non-empty wins), then passed through a small
// per-field transform. The extractor never errors: unparsable input
// falls back to current time, empty string, or nil, matching the
// upstream venue feeds which occasionally send malformed frames that
// must not stall ingestion.
package normalize
