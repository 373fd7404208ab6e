// Package translation implements the pipeline stage that translates the
// reviewed transcript into the target language and compiles the subtitle
// track. Jobs whose source and target language already match skip the remote
// translation call.
package translation
