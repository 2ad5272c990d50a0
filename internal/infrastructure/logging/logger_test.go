package logging

import "testing"

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("test message")
}

func TestNewDevelopmentMode(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true, OutputPaths: []string{"stdout"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("test message")
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud", OutputPaths: []string{"stdout"}}); err == nil {
		t.Fatal("Expected error for unknown level")
	}
}
