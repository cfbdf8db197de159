// Package deepgram implements the transcriber and synthesizer contracts
// against the Deepgram speech APIs.
package deepgram

import "strings"

// Config controls Deepgram API access.
type Config struct {
	APIKey     string
	APIBaseURL string
	WSBaseURL  string
	Model      string
	Voice      string
	SampleRate int
	Channels   int
}

func (c Config) withDefaults() Config {
	out := c
	if out.APIBaseURL == "" {
		out.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if out.WSBaseURL == "" {
		out.WSBaseURL = "wss://api.deepgram.com/v1"
	}
	if out.Model == "" {
		out.Model = "nova-2"
	}
	if out.Voice == "" {
		out.Voice = "aura-asteria-en"
	}
	if out.SampleRate <= 0 {
		out.SampleRate = 16000
	}
	if out.Channels <= 0 {
		out.Channels = 1
	}
	return out
}

func (c Config) hasKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}
