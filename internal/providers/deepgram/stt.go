package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

const sttChunkSize = 8192

// Transcriber converts one captured audio sample to text over the Deepgram
// streaming websocket: write the sample, close the stream, collect finals.
type Transcriber struct {
	cfg Config
}

func NewTranscriber(cfg Config) *Transcriber {
	return &Transcriber{cfg: cfg.withDefaults()}
}

type listenResponse struct {
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
		IsFinal bool `json:"is_final"`
	} `json:"channel"`
}

// Transcribe sends the sample and returns the concatenated final transcript.
// An empty transcript is a normal outcome.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if !t.cfg.hasKey() {
		return "", errors.New("deepgram: API key is not configured")
	}

	wsURL, err := t.listenURL()
	if err != nil {
		return "", err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+t.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return "", fmt.Errorf("deepgram: websocket dial failed: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for offset := 0; offset < len(audio); offset += sttChunkSize {
		end := offset + sttChunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[offset:end]); err != nil {
			return "", fmt.Errorf("deepgram: audio write failed: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return "", fmt.Errorf("deepgram: close stream failed: %w", err)
	}

	var finals []string
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("deepgram: websocket read failed: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var resp listenResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if !resp.Channel.IsFinal || len(resp.Channel.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript); text != "" {
			finals = append(finals, text)
		}
	}

	return strings.Join(finals, " "), nil
}

func (t *Transcriber) listenURL() (string, error) {
	base, err := url.Parse(t.cfg.WSBaseURL)
	if err != nil {
		return "", fmt.Errorf("deepgram: invalid websocket base URL: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/listen"

	query := url.Values{}
	query.Set("model", t.cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(t.cfg.SampleRate))
	query.Set("channels", strconv.Itoa(t.cfg.Channels))
	base.RawQuery = query.Encode()
	return base.String(), nil
}
