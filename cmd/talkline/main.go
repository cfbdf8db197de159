package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"talkline/internal/audio"
	"talkline/internal/bootstrap"
	"talkline/internal/ports"
)

const usage = `commands:
  call <contact>     place a call
  ring <contact>     simulate an incoming call
  answer             accept the ringing call
  reject             decline the ringing call
  say <text>         run a typed turn
  rec                start recording a spoken turn
  stop               stop recording and run the turn
  cancel             discard the current recording
  mute / unmute      toggle microphone routing
  hang               end the call
  status             show session state
  quit               exit`

func main() {
	// Load .env (DEEPGRAM_API_KEY, OPENAI_API_KEY, ...)
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := audio.Init(); err != nil {
		log.Fatal().Err(err).Msg("audio init failed")
	}
	defer audio.Shutdown()

	services, err := bootstrap.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer services.Close()

	machine := services.Machine

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = machine.HangUp(context.Background())
		cancel()
	}()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "call":
			err = machine.StartOutgoing(ctx, contactFor(arg))
		case "ring":
			err = machine.StartIncoming(ctx, contactFor(arg))
		case "answer":
			err = machine.Accept(ctx)
		case "reject":
			err = machine.Reject(ctx)
		case "say":
			err = machine.SendText(ctx, arg)
		case "rec":
			err = machine.BeginCapture(ctx)
		case "stop":
			err = machine.CompleteCapture(ctx)
		case "cancel":
			err = machine.CancelCapture()
		case "mute":
			machine.SetMuted(true)
		case "unmute":
			machine.SetMuted(false)
		case "hang":
			err = machine.HangUp(ctx)
		case "status":
			snap := machine.Snapshot()
			fmt.Printf("status=%s contact=%s turns=%d cached=%d\n",
				snap.Status, snap.ContactID, len(snap.Transcript), snap.VoiceCache)
		case "quit", "exit":
			_ = machine.HangUp(ctx)
			return
		case "help":
			fmt.Println(usage)
		default:
			fmt.Println("unknown command; try 'help'")
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func contactFor(arg string) ports.ContactContext {
	if arg == "" {
		arg = "contact-1"
	}
	return ports.ContactContext{
		ContactID: arg,
		Name:      arg,
		Persona:   os.Getenv("TALKLINE_PERSONA"),
	}
}
