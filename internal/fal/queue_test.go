package fal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func queueTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Key:          "fal-test",
		RESTBase:     srv.URL,
		QueueBase:    srv.URL,
		PollInterval: time.Millisecond,
		HTTPClient:   srv.Client(),
	})
}

func TestRunFabric_NoWaitReturnsRequestID(t *testing.T) {
	var statusCalls atomic.Int32
	client := queueTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			if r.Header.Get("Authorization") != "Key fal-test" {
				t.Error("missing auth header")
			}
			var args map[string]interface{}
			json.NewDecoder(r.Body).Decode(&args)
			if args["resolution"] != "480p" {
				t.Errorf("resolution = %v", args["resolution"])
			}
			fmt.Fprint(w, `{"request_id":"req-1"}`)
		default:
			statusCalls.Add(1)
			fmt.Fprint(w, `{"status":"IN_QUEUE"}`)
		}
	}))

	result, err := client.RunFabric(context.Background(), "veed/fabric-1.0",
		"https://img", "https://audio", "480p", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["request_id"] != "req-1" {
		t.Errorf("result = %v", result)
	}
	if statusCalls.Load() != 0 {
		t.Errorf("wait=false must not poll, got %d status calls", statusCalls.Load())
	}
}

func TestRunFabric_WaitPollsToCompletion(t *testing.T) {
	var statusCalls atomic.Int32
	client := queueTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			fmt.Fprint(w, `{"request_id":"req-2"}`)
		case r.URL.Path == "/veed/fabric-1.0/requests/req-2/status":
			if r.URL.Query().Get("logs") != "1" {
				t.Error("status poll should request logs")
			}
			if statusCalls.Add(1) < 3 {
				fmt.Fprint(w, `{"status":"IN_PROGRESS","logs":[{"message":"rendering"}]}`)
				return
			}
			fmt.Fprint(w, `{"status":"COMPLETED"}`)
		case r.URL.Path == "/veed/fabric-1.0/requests/req-2":
			fmt.Fprint(w, `{"video":{"url":"https://cdn.fal/video.mp4"}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	result, err := client.RunFabric(context.Background(), "veed/fabric-1.0",
		"https://img", "https://audio", "720p", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	video, _ := result["video"].(map[string]interface{})
	if video["url"] != "https://cdn.fal/video.mp4" {
		t.Errorf("result = %v", result)
	}
	if statusCalls.Load() != 3 {
		t.Errorf("expected 3 status polls, got %d", statusCalls.Load())
	}
}

func TestSubscribe_UnexpectedStateFails(t *testing.T) {
	client := queueTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"request_id":"req-3"}`)
			return
		}
		fmt.Fprint(w, `{"status":"FAILED"}`)
	}))

	_, err := client.Subscribe(context.Background(), "m", map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for unexpected queue state")
	}
}

func TestSubmit_MissingRequestID(t *testing.T) {
	client := queueTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	if _, err := client.Submit(context.Background(), "m", nil); err == nil {
		t.Fatal("expected error when request_id missing")
	}
}

func TestUploadBytes_TwoPhaseFlow(t *testing.T) {
	var putHit atomic.Bool
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/upload/initiate":
			if r.URL.Query().Get("storage_type") != "fal-cdn-v3" {
				t.Errorf("storage_type = %q", r.URL.Query().Get("storage_type"))
			}
			var req initiateUploadRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.FileName != "audio.mp3" {
				t.Errorf("file_name = %q", req.FileName)
			}
			fmt.Fprintf(w, `{"file_url":"https://cdn.fal/audio.mp3","upload_url":"%s/put-here"}`, srvURL)
		case "/put-here":
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			putHit.Store(true)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := NewClient(Config{Key: "k", RESTBase: srv.URL, HTTPClient: srv.Client()})
	url, err := client.UploadBytes(context.Background(), "audio.mp3", []byte("bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.fal/audio.mp3" {
		t.Errorf("url = %q", url)
	}
	if !putHit.Load() {
		t.Error("upload PUT never happened")
	}
}

func TestUploadBytes_APIError(t *testing.T) {
	client := queueTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"bad key"}`)
	}))

	_, err := client.UploadBytes(context.Background(), "f.png", []byte("x"))
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 401 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}
