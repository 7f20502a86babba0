package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/burstmeman/Midi2Keys-sub000/internal/analysis"
	"github.com/burstmeman/Midi2Keys-sub000/internal/keyout"
	"github.com/burstmeman/Midi2Keys-sub000/internal/live"
	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/internal/panicstop"
	"github.com/burstmeman/Midi2Keys-sub000/internal/profile"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/midikeys"
)

func main() {
	listDevices := flag.Bool("list-devices", false, "list MIDI input devices and exit")
	analyze := flag.Bool("analyze", false, "print score and mapping statistics instead of playing")
	profileName := flag.String("profile", profile.DefaultProfileName, "mapping profile name")
	profilesDir := flag.String("profiles-dir", "", "profile directory (default ~/.config/midikeys/profiles)")
	shift := flag.Int("shift", 0, "note shift in semitones applied on top of the profile")
	liveMode := flag.Bool("live", false, "route a live MIDI device to the keyboard instead of playing a file")
	device := flag.Int("device", 0, "device index for -live")
	tempo := flag.Float64("tempo", 0, "tempo multiplier override (0 keeps the profile value)")
	hold := flag.Int("hold", -1, "key press duration override in ms (-1 keeps the profile value)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logger.NewZapLogger()
	level := contracts.InfoLevel
	if *debug {
		level = contracts.DebugLevel
	}
	log.SetLevel(level)

	if *listDevices {
		if err := runListDevices(log); err != nil {
			log.Error("Failed to list devices", log.Field().Error("error", err))
			os.Exit(1)
		}
		return
	}

	prof, err := loadProfile(*profilesDir, *profileName)
	if err != nil {
		log.Error("Failed to load profile", log.Field().Error("error", err))
		os.Exit(1)
	}
	if *tempo > 0 {
		prof.Options.TempoMultiplier = *tempo
	}
	if *hold >= 0 {
		prof.Options.KeyPressDurationMs = *hold
	}

	if *liveMode {
		if err := runLive(log, level, prof, *device, *shift); err != nil {
			log.Error("Live routing failed", log.Field().Error("error", err))
			os.Exit(1)
		}
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: midikeys [flags] <score.mid>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Error("Failed to read MIDI file", log.Field().Error("error", err))
		os.Exit(1)
	}
	doc, err := midikeys.ParseDocument(data)
	if err != nil {
		log.Error("Failed to parse MIDI file", log.Field().Error("error", err))
		os.Exit(1)
	}

	if *analyze {
		printAnalysis(doc, prof, *shift)
		return
	}

	if err := runPlayback(log, level, doc, prof, *shift); err != nil {
		log.Error("Playback failed", log.Field().Error("error", err))
		os.Exit(1)
	}
}

func loadProfile(dir, name string) (*contracts.Profile, error) {
	if dir == "" {
		d, err := profile.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return profile.NewStore(dir).Profile(name)
}

func runListDevices(log contracts.Logger) error {
	client, err := midikeys.NewInputClient(contracts.WithLogger(log))
	if err != nil {
		return err
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No MIDI input devices found.")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%3d  %s (%s)\n", d.ID, d.Name, d.Manufacturer)
	}
	return nil
}

func printAnalysis(doc *contracts.MidiDocument, prof *contracts.Profile, shift int) {
	sum := analysis.Summarize(doc)
	cov := analysis.ProfileCoverage(doc, prof, prof.Options.Transpose, shift)

	fmt.Printf("Format:       %d (%d tracks, %d PPQ)\n", sum.Format, sum.TrackCount, doc.Resolution)
	fmt.Printf("Duration:     %.1fs\n", sum.DurationMs/1000)
	fmt.Printf("Notes:        %d (range %d..%d)\n", sum.NoteCount, sum.MinNote, sum.MaxNote)
	fmt.Printf("Tempo:        %.1f BPM initially, %d changes\n", sum.InitialBPM, sum.TempoCount)
	for ch, n := range sum.NotesPerChannel {
		if n > 0 {
			fmt.Printf("Channel %2d:   %d notes\n", ch, n)
		}
	}
	fmt.Printf("Mapped:       %d/%d (%.1f%%) with profile %q\n",
		cov.Mapped, cov.Mapped+cov.Dropped, cov.Ratio()*100, prof.Name)
	if len(cov.UnmappedNotes) > 0 {
		fmt.Printf("Unmapped:     %v\n", cov.UnmappedNotes)
	}
}

func runPlayback(log contracts.Logger, level contracts.LogLevel, doc *contracts.MidiDocument, prof *contracts.Profile, shift int) error {
	player, stopper, err := midikeys.NewPlayer(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
	)
	if err != nil {
		return err
	}

	go watchEvents(log, player, doc.DurationMs())
	go panicOnStdin(stopper)
	go panicOnSignal(stopper)

	if err := player.Play(doc, prof, shift); err != nil {
		return err
	}
	fmt.Printf("Playing %d notes with profile %q. Enter = panic stop, Ctrl+C = abort.\n",
		doc.NoteCount(), prof.Name)

	player.Wait()
	fmt.Println()
	return nil
}

func runLive(log contracts.Logger, level contracts.LogLevel, prof *contracts.Profile, device, shift int) error {
	client, err := midikeys.NewInputClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
	)
	if err != nil {
		return err
	}
	defer client.Stop()

	if err := client.SelectDevice(device); err != nil {
		return err
	}

	sink, err := keyout.New(log)
	if err != nil {
		return err
	}
	coordinator := panicstop.New(sink, log)
	router := live.New(live.Config{
		Logger:    log,
		Sink:      coordinator.Sink(),
		Profile:   prof,
		NoteShift: shift,
	})
	coordinator.AddListener(router.Flush)

	events := make(chan contracts.InputEvent, 128)
	router.Start(events)
	defer router.Stop()
	client.StartCapture(events)

	go panicOnStdin(coordinator)

	fmt.Printf("Routing device %d with profile %q. Enter = panic stop, Ctrl+C = quit.\n", device, prof.Name)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	coordinator.TriggerPanicStop()
	return nil
}

// watchEvents drains the player's event channel, printing progress to
// stdout and surfacing errors through the logger.
func watchEvents(log contracts.Logger, player contracts.Player, totalMs float64) {
	for event := range player.Watch() {
		switch event.Kind {
		case contracts.EventProgress:
			fmt.Printf("\r%6.1fs / %.1fs", event.Position.Seconds(), totalMs/1000)
		case contracts.EventKeyAction:
			log.Debug("Key action",
				log.Field().String("key", event.Key),
				log.Field().Bool("press", event.Press),
			)
		case contracts.EventError:
			log.Error("Playback error", log.Field().Error("error", event.Err))
		case contracts.EventFinished:
			fmt.Println("\nDone.")
		}
	}
}

// panicOnStdin triggers a panic stop for every line read from stdin.
func panicOnStdin(stopper contracts.PanicStopper) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		stopper.TriggerPanicStop()
	}
}

func panicOnSignal(stopper contracts.PanicStopper) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	stopper.TriggerPanicStop()
}
