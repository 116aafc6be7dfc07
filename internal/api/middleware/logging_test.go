package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLoggingCapturesStatusAndBytes(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}), logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playlists", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("Expected a log entry")
	}
	if entry.Level != logrus.InfoLevel {
		t.Errorf("Level = %v, expected info", entry.Level)
	}
	if entry.Data["status"] != http.StatusNotFound {
		t.Errorf("status field = %v, expected 404", entry.Data["status"])
	}
	if entry.Data["bytes"] != len("not found") {
		t.Errorf("bytes field = %v, expected %d", entry.Data["bytes"], len("not found"))
	}
	if entry.Data["path"] != "/api/playlists" {
		t.Errorf("path field = %v", entry.Data["path"])
	}
}

func TestLoggingDemotesHealthAndMetrics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}), logger)

	for _, path := range []string{"/health", "/metrics"} {
		hook.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		entry := hook.LastEntry()
		if entry == nil {
			t.Fatalf("%s: expected a log entry", path)
		}
		if entry.Level != logrus.DebugLevel {
			t.Errorf("%s: level = %v, expected debug", path, entry.Level)
		}
	}
}
