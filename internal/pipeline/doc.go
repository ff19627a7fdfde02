// Package pipeline runs a recording through the reconstruction stages.
//
// Lines are grouped by type tag, then each channel group is decoded,
// sequence-numbered, timestamped and filtered as a whole. Channels are
// independent, so groups run concurrently; each owns its sequence state and
// diagnostics. HR summaries bypass decoding and filtering and go straight
// through the drop policy.
package pipeline
