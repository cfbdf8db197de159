package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Synthesizer renders plain text to a linear16 PCM sample via the Deepgram
// speak endpoint.
type Synthesizer struct {
	cfg    Config
	client *http.Client
}

func NewSynthesizer(cfg Config) *Synthesizer {
	return &Synthesizer{
		cfg:    cfg.withDefaults(),
		client: &http.Client{},
	}
}

type speakPayload struct {
	Text string `json:"text"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.cfg.hasKey() {
		return nil, errors.New("deepgram: API key is not configured")
	}

	body, err := json.Marshal(speakPayload{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.speakURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", fmt.Sprintf("audio/x-raw;encoding=linear16;rate=%d;channels=%d", s.cfg.SampleRate, s.cfg.Channels))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("deepgram: speak returned status %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (s *Synthesizer) speakURL() string {
	query := url.Values{}
	query.Set("model", s.cfg.Voice)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(s.cfg.SampleRate))
	return strings.TrimRight(s.cfg.APIBaseURL, "/") + "/speak?" + query.Encode()
}
