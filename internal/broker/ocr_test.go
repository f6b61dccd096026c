package broker

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPRecognizer_PlainText(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte("  7h3x  \n"))
	}))
	defer server.Close()

	rec := NewHTTPRecognizer(server.URL)
	text, err := rec.Recognize([]byte("fake-png-bytes"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "7h3x" {
		t.Errorf("Recognize() = %q, want %q", text, "7h3x")
	}
	if string(gotBody) != "fake-png-bytes" {
		t.Errorf("service received body %q, want image bytes", gotBody)
	}
	if gotContentType != "application/octet-stream" {
		t.Errorf("Content-Type = %q, want application/octet-stream", gotContentType)
	}
}

func TestHTTPRecognizer_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": " ab12 "}`))
	}))
	defer server.Close()

	rec := NewHTTPRecognizer(server.URL)
	text, err := rec.Recognize([]byte("img"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "ab12" {
		t.Errorf("Recognize() = %q, want %q", text, "ab12")
	}
}

func TestHTTPRecognizer_EmptyText(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"blank plain text", "   \n"},
		{"blank json text", `{"text": ""}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			rec := NewHTTPRecognizer(server.URL)
			_, err := rec.Recognize([]byte("img"))
			if !errors.Is(err, ErrEmptyRecognition) {
				t.Errorf("Recognize() error = %v, want %v", err, ErrEmptyRecognition)
			}
		})
	}
}

func TestHTTPRecognizer_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ocr backend down", http.StatusBadGateway)
	}))
	defer server.Close()

	rec := NewHTTPRecognizer(server.URL)
	_, err := rec.Recognize([]byte("img"))
	if err == nil {
		t.Fatal("Recognize() expected error for 502 response")
	}
}

func TestHTTPRecognizer_Unreachable(t *testing.T) {
	rec := NewHTTPRecognizer("http://127.0.0.1:1")
	_, err := rec.Recognize([]byte("img"))
	if err == nil {
		t.Fatal("Recognize() expected error for unreachable service")
	}
}
