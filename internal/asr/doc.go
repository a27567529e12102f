// Package asr abstracts remote speech recognition behind a single
// Transcribe capability. Two completion protocols are supported: the
// synchronous flash API (one signed request, result inline) and the
// asynchronous file transcription API (signed submit, then signed polls
// until a terminal status or the attempt budget runs out). Provider
// selection is a pure function of configuration; there is no shared
// mutable provider state.
package asr
