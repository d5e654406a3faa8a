package logger

import (
	"context"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get() returned nil after Init()")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	ctx := context.Background()
	log := Get()

	log.Info(ctx, "info message", String("key", "value"))
	log.Debug(ctx, "debug message", Int("count", 42))
	log.Warn(ctx, "warn message", Float64("score", 0.95))
	log.Error(ctx, "error message", Any("payload", map[string]int{"a": 1}))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	named := Named("capture")
	if named == nil {
		t.Fatal("Named() returned nil")
	}
	named.Info(context.Background(), "named logger message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("SetLevelString(\"verbose\") should fail")
	}
}
