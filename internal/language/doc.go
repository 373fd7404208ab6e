// Package language provides unified language code normalization and naming.
//
// Target and source languages arrive from clients as ISO 639-1 codes, ISO
// 639-2 codes, or full language names; transcription services report detected
// languages in yet another mix. Everything funnels through Normalize so the
// pipeline compares languages consistently, and DisplayName produces the
// human-readable names used in translation prompts.
package language
