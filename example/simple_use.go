package main

import (
	"fmt"
	"os"

	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/internal/profile"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/midikeys"
)

func main() {
	log := logger.NewZapLogger()

	if len(os.Args) < 2 {
		fmt.Println("usage: simple_use <score.mid>")
		return
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Error("Failed to read MIDI file", log.Field().Error("error", err))
		return
	}

	doc, err := midikeys.ParseDocument(data)
	if err != nil {
		log.Error("Failed to parse MIDI file", log.Field().Error("error", err))
		return
	}
	fmt.Printf("Loaded score: %d notes, %.1fs\n", doc.NoteCount(), doc.DurationMs()/1000)

	player, _, err := midikeys.NewPlayer(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize player", log.Field().Error("error", err))
		return
	}

	go func() {
		for event := range player.Watch() {
			switch event.Kind {
			case contracts.EventKeyAction:
				log.Info("Key action",
					log.Field().String("key", event.Key),
					log.Field().Bool("press", event.Press),
				)
			case contracts.EventStateChanged:
				log.Info("Playback state", log.Field().String("state", event.State.String()))
			case contracts.EventError:
				log.Error("Playback error", log.Field().Error("error", event.Err))
			}
		}
	}()

	if err = player.Play(doc, profile.DefaultProfile(), 0); err != nil {
		log.Error("Failed to start playback", log.Field().Error("error", err))
		return
	}

	fmt.Println("Playing... Press Ctrl+C to abort.")
	player.Wait()
}
