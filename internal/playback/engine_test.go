package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

type sinkAction struct {
	combo contracts.KeyCombination
	press bool
	at    time.Time
}

// recordingSink captures every key action with a timestamp.
type recordingSink struct {
	mu         sync.Mutex
	actions    []sinkAction
	releaseAll int
	pressErr   error
}

func (r *recordingSink) record(combo contracts.KeyCombination, press bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, sinkAction{combo: combo, press: press, at: time.Now()})
}

func (r *recordingSink) Press(key string) error {
	r.record(contracts.KeyCombination{Key: key}, true)
	return nil
}

func (r *recordingSink) Release(key string) error {
	r.record(contracts.KeyCombination{Key: key}, false)
	return nil
}

func (r *recordingSink) PressCombo(combo contracts.KeyCombination) error {
	r.mu.Lock()
	err := r.pressErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.record(combo, true)
	return nil
}

func (r *recordingSink) ReleaseCombo(combo contracts.KeyCombination) error {
	r.record(combo, false)
	return nil
}

func (r *recordingSink) ReleaseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseAll++
	return nil
}

func (r *recordingSink) split() (presses, releases []sinkAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actions {
		if a.press {
			presses = append(presses, a)
		} else {
			releases = append(releases, a)
		}
	}
	return presses, releases
}

func (r *recordingSink) counts() (presses, releases int) {
	p, rel := r.split()
	return len(p), len(rel)
}

// scoreDoc wraps millisecond-resolved events in a 480 PPQ, 120 BPM
// document.
func scoreDoc(events ...contracts.ScoreEvent) *contracts.MidiDocument {
	return &contracts.MidiDocument{
		TrackCount: 1,
		Resolution: 480,
		TempoChanges: []contracts.TempoChange{
			{Tick: 0, MicrosPerQuarter: contracts.DefaultMicrosPerQuarter},
		},
		Events: events,
	}
}

func onAt(ms float64, note uint8) contracts.ScoreEvent {
	return contracts.ScoreEvent{TimeMs: ms, Note: note, Velocity: 100, NoteOn: true}
}

func offAt(ms float64, note uint8) contracts.ScoreEvent {
	return contracts.ScoreEvent{TimeMs: ms, Note: note}
}

func keyProfile(mappings ...contracts.NoteMapping) *contracts.Profile {
	if len(mappings) == 0 {
		mappings = []contracts.NoteMapping{{
			Note:        60,
			Combo:       contracts.KeyCombination{Key: "a"},
			Channel:     contracts.AnyChannel,
			MaxVelocity: 127,
		}}
	}
	return &contracts.Profile{Name: "test", Mappings: mappings}
}

func newTestEngine(sink contracts.KeySink) *Engine {
	return NewEngine(Config{Sink: sink})
}

// waitFor polls until cond holds, failing the test after a second.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached within 1s")
}

func TestPlayRejectsMissingInputs(t *testing.T) {
	e := newTestEngine(&recordingSink{})

	if err := e.Play(nil, keyProfile(), 0); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("nil document: err = %v, want ErrNoDocument", err)
	}
	if err := e.Play(scoreDoc(), nil, 0); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("nil profile: err = %v, want ErrNoProfile", err)
	}
	if err := e.Play(scoreDoc(), &contracts.Profile{}, 0); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("empty profile: err = %v, want ErrNoProfile", err)
	}
}

func TestStopWhenStoppedIsNoOp(t *testing.T) {
	e := newTestEngine(&recordingSink{})

	e.Stop()
	e.Pause()
	e.Resume()
	e.Wait()

	if got := e.State(); got != contracts.StateStopped {
		t.Fatalf("state = %v, want stopped", got)
	}
	if got := e.Position(); got != 0 {
		t.Fatalf("position = %v, want 0", got)
	}
}

func TestSingleNotePressAndRelease(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	start := time.Now()
	if err := e.Play(scoreDoc(onAt(0, 60), offAt(500, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Wait()

	presses, releases := sink.split()
	if len(presses) != 1 || len(releases) != 1 {
		t.Fatalf("got %d presses, %d releases; want 1 and 1", len(presses), len(releases))
	}
	if presses[0].combo.Key != "a" || releases[0].combo.Key != "a" {
		t.Fatalf("combos = %+v / %+v, want a / a", presses[0].combo, releases[0].combo)
	}

	if d := presses[0].at.Sub(start); d > 150*time.Millisecond {
		t.Fatalf("press fired %v after play, want ~0ms", d)
	}
	if d := releases[0].at.Sub(start); d < 500*time.Millisecond || d > 2*time.Second {
		t.Fatalf("release fired %v after play, want ~500ms", d)
	}
	if got := e.State(); got != contracts.StateStopped {
		t.Fatalf("state after completion = %v, want stopped", got)
	}
}

func TestPlayAppliesNoteShift(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	// +2 shift: incoming note 62 answers through the mapping for 60.
	if err := e.Play(scoreDoc(onAt(0, 62), offAt(50, 62)), keyProfile(), 2); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Wait()

	presses, releases := sink.counts()
	if presses != 1 || releases != 1 {
		t.Fatalf("got %d presses, %d releases; want 1 and 1", presses, releases)
	}
}

func TestSecondPlayRejectedWhileBusy(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(5000, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := e.Play(scoreDoc(onAt(0, 60)), keyProfile(), 0); !errors.Is(err, ErrPlaybackBusy) {
		t.Fatalf("second play: err = %v, want ErrPlaybackBusy", err)
	}
	if got := e.State(); got != contracts.StatePlaying {
		t.Fatalf("state after rejected play = %v, want playing", got)
	}

	e.Stop()
	if got := e.State(); got != contracts.StateStopped {
		t.Fatalf("state after stop = %v, want stopped", got)
	}
}

func TestStopReleasesHeldKeys(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(5000, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, func() bool { p, _ := sink.counts(); return p == 1 })

	e.Stop()

	presses, releases := sink.counts()
	if presses != 1 {
		t.Fatalf("got %d presses, want 1", presses)
	}
	if releases != 1 {
		t.Fatalf("stop left %d releases, want 1 from cleanup", releases)
	}
}

func TestVelocityBelowThresholdDroppedSilently(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	prof := keyProfile()
	prof.Options.MinVelocity = 40

	quiet := onAt(0, 60)
	quiet.Velocity = 20
	if err := e.Play(scoreDoc(quiet, offAt(50, 60)), prof, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Wait()

	if presses, releases := sink.counts(); presses != 0 || releases != 0 {
		t.Fatalf("quiet note produced %d presses, %d releases; want none", presses, releases)
	}

	// The drop is silent: the session completes without an error event.
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-e.Watch():
			if ev.Kind == contracts.EventError {
				t.Fatalf("dropped note raised error: %v", ev.Err)
			}
			if ev.Kind == contracts.EventFinished {
				return
			}
		case <-deadline:
			t.Fatalf("no finished event")
		}
	}
}

func TestFixedHoldDurationReleasesEarly(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	prof := keyProfile()
	prof.Options.KeyPressDurationMs = 50

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(400, 60)), prof, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Wait()

	presses, releases := sink.split()
	if len(presses) != 1 || len(releases) != 1 {
		t.Fatalf("got %d presses, %d releases; want 1 and 1", len(presses), len(releases))
	}
	held := releases[0].at.Sub(presses[0].at)
	if held < 50*time.Millisecond || held > 350*time.Millisecond {
		t.Fatalf("key held %v, want ~50ms from the fixed duration, not the note off", held)
	}
}

func TestSharedComboPressedOnce(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	shared := contracts.KeyCombination{Key: "a"}
	prof := keyProfile(
		contracts.NoteMapping{Note: 60, Combo: shared, Channel: contracts.AnyChannel, MaxVelocity: 127},
		contracts.NoteMapping{Note: 62, Combo: shared, Channel: contracts.AnyChannel, MaxVelocity: 127},
	)

	doc := scoreDoc(onAt(0, 60), onAt(20, 62), offAt(60, 60), offAt(80, 62))
	if err := e.Play(doc, prof, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	e.Wait()

	if presses, releases := sink.counts(); presses != 1 || releases != 1 {
		t.Fatalf("shared combo: %d presses, %d releases; want 1 and 1", presses, releases)
	}
}

func TestPauseExcludedFromPosition(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(200, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, func() bool { p, _ := sink.counts(); return p == 1 })

	e.Pause()
	if got := e.State(); got != contracts.StatePaused {
		t.Fatalf("state = %v, want paused", got)
	}
	p1 := e.Position()
	time.Sleep(150 * time.Millisecond)
	p2 := e.Position()
	if p1 != p2 {
		t.Fatalf("position advanced while paused: %v -> %v", p1, p2)
	}

	// The note off at 200ms must not fire while paused, even though more
	// than 200ms of wall time has passed.
	if _, releases := sink.counts(); releases != 0 {
		t.Fatalf("note off fired while paused")
	}

	e.Resume()
	e.Wait()

	presses, releases := sink.split()
	if len(presses) != 1 || len(releases) != 1 {
		t.Fatalf("got %d presses, %d releases; want 1 and 1", len(presses), len(releases))
	}
	// 200ms of timeline plus at least 150ms of pause.
	if d := releases[0].at.Sub(presses[0].at); d < 300*time.Millisecond {
		t.Fatalf("release came %v after press; pause not excluded from schedule", d)
	}
}

func TestDispatchErrorEndsSession(t *testing.T) {
	sink := &recordingSink{pressErr: errors.New("sendinput failed")}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(5000, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}

	deadline := time.After(time.Second)
	sawError := false
	for !sawError {
		select {
		case ev := <-e.Watch():
			if ev.Kind == contracts.EventError {
				sawError = true
			}
		case <-deadline:
			t.Fatalf("no error event after press failure")
		}
	}

	e.Wait()
	if got := e.State(); got != contracts.StateStopped {
		t.Fatalf("state = %v, want stopped after dispatch failure", got)
	}
	if _, releases := sink.counts(); releases != 0 {
		t.Fatalf("failed press still produced %d releases", releases)
	}
}

func TestPanicStopWithoutCoordinatorReleasesAll(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(5000, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, func() bool { p, _ := sink.counts(); return p == 1 })

	e.PanicStop()
	e.Wait()

	sink.mu.Lock()
	releaseAll := sink.releaseAll
	sink.mu.Unlock()
	if releaseAll == 0 {
		t.Fatalf("panic stop never called ReleaseAll")
	}
	if got := e.State(); got != contracts.StateStopped {
		t.Fatalf("state = %v, want stopped", got)
	}
}

func TestWatchReportsLifecycle(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)

	if err := e.Play(scoreDoc(onAt(0, 60), offAt(50, 60)), keyProfile(), 0); err != nil {
		t.Fatalf("play: %v", err)
	}

	var sawPlaying, sawPress, sawStopped, sawFinished bool
	deadline := time.After(2 * time.Second)
	for !sawFinished {
		select {
		case ev := <-e.Watch():
			switch ev.Kind {
			case contracts.EventStateChanged:
				switch ev.State {
				case contracts.StatePlaying:
					sawPlaying = true
				case contracts.StateStopped:
					sawStopped = true
				}
			case contracts.EventKeyAction:
				if ev.Press && ev.Key == "a" {
					sawPress = true
				}
			case contracts.EventFinished:
				sawFinished = true
			}
		case <-deadline:
			t.Fatalf("watch timed out: playing=%v press=%v stopped=%v", sawPlaying, sawPress, sawStopped)
		}
	}

	if !sawPlaying || !sawPress || !sawStopped {
		t.Fatalf("missing lifecycle events: playing=%v press=%v stopped=%v", sawPlaying, sawPress, sawStopped)
	}
}
