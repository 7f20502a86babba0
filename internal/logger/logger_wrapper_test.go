package logger

import (
	"errors"
	"strings"
	"testing"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observedLogger builds a ZapLogger over an in-memory core so tests can
// inspect what actually got emitted.
func observedLogger() (contracts.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &ZapLogger{logger: zap.New(core), level: contracts.InfoLevel}, logs
}

func TestLevelFilteringHappensBeforeZap(t *testing.T) {
	log, logs := observedLogger()

	log.Debug("hidden")
	if got := logs.Len(); got != 0 {
		t.Fatalf("entries after debug at info level = %d, want 0", got)
	}

	log.Info("shown")
	if got := logs.Len(); got != 1 {
		t.Fatalf("entries after info = %d, want 1", got)
	}

	log.SetLevel(contracts.ErrorLevel)
	log.Warn("hidden too")
	if got := logs.Len(); got != 1 {
		t.Fatalf("entries after warn at error level = %d, want 1", got)
	}

	log.Error("boom")
	if got := logs.Len(); got != 2 {
		t.Fatalf("entries after error = %d, want 2", got)
	}
	if entry := logs.All()[1]; entry.Level != zapcore.ErrorLevel || entry.Message != "boom" {
		t.Fatalf("last entry = %v %q, want error %q", entry.Level, entry.Message, "boom")
	}
}

func TestFieldsAndCallerReachZap(t *testing.T) {
	log, logs := observedLogger()

	log.Info("key action",
		log.Field().String("combo", "ctrl+a"),
		log.Field().Bool("press", true),
		log.Field().Int("note", 60),
		log.Field().Error("cause", errors.New("nope")),
	)

	if logs.Len() != 1 {
		t.Fatalf("entries = %d, want 1", logs.Len())
	}
	ctx := logs.All()[0].ContextMap()

	caller, ok := ctx["caller"].(string)
	if !ok || !strings.Contains(caller, "logger_wrapper_test.go") {
		t.Fatalf("caller = %v, want this test file", ctx["caller"])
	}
	if got := ctx["combo"]; got != "ctrl+a" {
		t.Fatalf("combo = %v, want ctrl+a", got)
	}
	if got := ctx["press"]; got != true {
		t.Fatalf("press = %v, want true", got)
	}
	if got := ctx["note"]; got != int64(60) {
		t.Fatalf("note = %v, want 60", got)
	}
	if _, ok := ctx["cause"]; !ok {
		t.Fatalf("cause field missing: %v", ctx)
	}
}

func TestEmptyFieldIsDropped(t *testing.T) {
	log, logs := observedLogger()

	log.Info("bare", log.Field())
	if logs.Len() != 1 {
		t.Fatalf("entries = %d, want 1", logs.Len())
	}
	ctx := logs.All()[0].ContextMap()
	if len(ctx) != 1 { // caller only
		t.Fatalf("context = %v, want caller only", ctx)
	}
}

func TestSeverityOrdersContractLevels(t *testing.T) {
	order := []contracts.LogLevel{
		contracts.DebugLevel,
		contracts.InfoLevel,
		contracts.WarnLevel,
		contracts.ErrorLevel,
		contracts.FatalLevel,
	}
	for i := 1; i < len(order); i++ {
		if severity(order[i-1]) >= severity(order[i]) {
			t.Fatalf("severity(%v) = %d not below severity(%v) = %d",
				order[i-1], severity(order[i-1]), order[i], severity(order[i]))
		}
	}
	if severity(contracts.LogLevel(99)) != severity(contracts.InfoLevel) {
		t.Fatalf("unknown level should rank as info")
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	log := NewNop()
	log.Debug("x")
	log.Info("x", log.Field().String("k", "v"))
	log.Warn("x")
	log.Error("x")
	log.SetLevel(contracts.DebugLevel)
	log.Debug("x")
}
