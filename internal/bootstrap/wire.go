// Package bootstrap assembles the runtime dependency graph.
package bootstrap

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"talkline/internal/audio"
	"talkline/internal/config"
	"talkline/internal/history"
	"talkline/internal/notify"
	"talkline/internal/observability/logging"
	"talkline/internal/observability/metrics"
	"talkline/internal/ports"
	"talkline/internal/providers/deepgram"
	"talkline/internal/providers/openai"
	"talkline/internal/usecase"
	"talkline/internal/voicestore"
)

// Services is the assembled runtime graph.
type Services struct {
	Machine *usecase.Machine
	History *history.Memory
	Store   ports.VoiceStore
	Config  config.Config

	closers []io.Closer
}

// Close releases external connections held by the graph.
func (s *Services) Close() {
	for _, closer := range s.closers {
		_ = closer.Close()
	}
}

// Build wires all collaborators for the current configuration. Storage picks
// postgres when a DSN is set, redis when an address is set, else in-memory.
func Build(ctx context.Context) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format)

	device := audio.NewDevice(audio.Config{
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	})

	stt := deepgram.NewTranscriber(deepgram.Config{
		APIKey:     cfg.Deepgram.APIKey,
		APIBaseURL: cfg.Deepgram.APIBaseURL,
		WSBaseURL:  cfg.Deepgram.WSBaseURL,
		Model:      cfg.Deepgram.Model,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})
	tts := deepgram.NewSynthesizer(deepgram.Config{
		APIKey:     cfg.Deepgram.APIKey,
		APIBaseURL: cfg.Deepgram.APIBaseURL,
		Voice:      cfg.Deepgram.Voice,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})
	replies := openai.NewGenerator(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})

	services := &Services{Config: cfg}

	local := history.NewMemory()
	services.History = local
	var sink ports.HistorySink = local
	if len(cfg.History.KafkaBrokers) > 0 {
		kafkaSink := history.NewKafkaSink(history.KafkaConfig{
			Brokers: cfg.History.KafkaBrokers,
			Topic:   cfg.History.KafkaTopic,
		})
		services.closers = append(services.closers, kafkaSink)
		sink = history.Fanout{local, kafkaSink}
	}

	store, err := buildStore(ctx, cfg.Store, services)
	if err != nil {
		return nil, err
	}
	services.Store = store

	machine, err := usecase.NewMachine(usecase.Deps{
		Device:   device,
		STT:      stt,
		Replies:  replies,
		TTS:      tts,
		History:  sink,
		Context:  local,
		Offer:    voicestore.NewKeeper(store, nil),
		Notifier: notify.NewLogger(logging.WithComponent("notify")),
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
	}, usecase.Config{
		ReplyTimeout:    cfg.Call.ReplyTimeout,
		FarewellTimeout: cfg.Call.FarewellTimeout,
		AcceptWindow:    cfg.Call.AcceptWindow,
		HangupGrace:     cfg.Call.HangupGrace,
		GreetingTurns:   cfg.Call.GreetingTurns,
		EstimateSeconds: func(sample []byte) float64 {
			return audio.EstimateSeconds(sample, cfg.Audio.SampleRate, cfg.Audio.Channels)
		},
	})
	if err != nil {
		services.Close()
		return nil, err
	}

	services.Machine = machine
	return services, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildStore(ctx context.Context, cfg config.StoreConfig, services *Services) (ports.VoiceStore, error) {
	switch {
	case cfg.PostgresDSN != "":
		store, err := voicestore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.closers = append(services.closers, closerFunc(func() error {
			store.Close()
			return nil
		}))
		return store, nil
	case cfg.RedisAddr != "":
		store, err := voicestore.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisTTL)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.closers = append(services.closers, store)
		return store, nil
	default:
		return voicestore.NewMemory(), nil
	}
}
