package domain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckReachable(t *testing.T) {
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %v, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer plain.Close()

	selfSigned := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer selfSigned.Close()

	tests := []struct {
		name       string
		url        string
		timeout    time.Duration
		shouldPass bool
	}{
		{
			name:       "any status counts as reachable",
			url:        plain.URL,
			timeout:    time.Second,
			shouldPass: true,
		},
		{
			name:       "self-signed certificate is rejected",
			url:        selfSigned.URL,
			timeout:    time.Second,
			shouldPass: false,
		},
		{
			name:       "invalid hostname",
			url:        "http://invalid-hostname-that-does-not-exist-12345678.invalid",
			timeout:    time.Second,
			shouldPass: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReachable(context.Background(), tt.url, tt.timeout)
			if tt.shouldPass && err != nil {
				t.Errorf("CheckReachable() = %v, want nil", err)
			}
			if !tt.shouldPass && err == nil {
				t.Errorf("CheckReachable() = nil, want error")
			}
		})
	}
}

func TestCheckRecordsKeepsOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	records := []Record{
		{RecordID: "a", TargetURL: ts.URL},
		{RecordID: "b", TargetURL: "http://invalid-hostname-that-does-not-exist-12345678.invalid"},
	}

	got := CheckRecords(context.Background(), records, time.Second)
	if len(got) != 2 {
		t.Fatalf("CheckRecords() returned %v results, want 2", len(got))
	}
	if got[0].Record.RecordID != "a" || !got[0].OK() {
		t.Errorf("CheckRecords()[0] = %+v, want reachable a", got[0])
	}
	if got[1].Record.RecordID != "b" || got[1].OK() {
		t.Errorf("CheckRecords()[1] = %+v, want unreachable b", got[1])
	}
}

func TestCheckRecordsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := CheckRecords(ctx, []Record{{RecordID: "a", TargetURL: "https://example.com"}}, time.Second)
	if len(got) != 1 || got[0].OK() {
		t.Errorf("CheckRecords() on cancelled ctx = %+v, want one failed result", got)
	}
}
