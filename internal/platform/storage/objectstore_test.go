package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
)

func TestObjectStoreSignedDownloadURL(t *testing.T) {
	signer := &fakeSigner{email: "test@example.iam.gserviceaccount.com"}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	signingClient, err := NewClient(signer, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	store, err := NewObjectStore(&gcs.Client{}, signingClient)
	if err != nil {
		t.Fatalf("NewObjectStore returned error: %v", err)
	}

	signed, err := store.SignedDownloadURL(context.Background(), "uniqmaker-quotes", "quotes/qt_01/devis_qt_01.pdf", 10*time.Minute)
	if err != nil {
		t.Fatalf("SignedDownloadURL returned error: %v", err)
	}
	if !strings.Contains(signed, "uniqmaker-quotes") || !strings.Contains(signed, "X-Goog-Signature=") {
		t.Fatalf("unexpected signed url %q", signed)
	}

	if _, err := store.SignedDownloadURL(context.Background(), "uniqmaker-quotes", "quotes/qt_01/devis_qt_01.pdf", time.Hour); err == nil {
		t.Fatal("expected expiry validation error")
	}
}

func TestObjectStoreUploadValidation(t *testing.T) {
	signer := &fakeSigner{email: "test@example.iam.gserviceaccount.com"}
	signingClient, err := NewClient(signer)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	store, err := NewObjectStore(&gcs.Client{}, signingClient)
	if err != nil {
		t.Fatalf("NewObjectStore returned error: %v", err)
	}

	ctx := context.Background()
	if err := store.Upload(ctx, "", "object", "application/pdf", []byte("x")); err == nil {
		t.Fatal("expected bucket validation error")
	}
	if err := store.Upload(ctx, "bucket", "", "application/pdf", []byte("x")); err == nil {
		t.Fatal("expected object validation error")
	}
	if err := store.Upload(ctx, "bucket", "object", "application/pdf", nil); err == nil {
		t.Fatal("expected data validation error")
	}
}

func TestNewObjectStoreValidation(t *testing.T) {
	signer := &fakeSigner{email: "test@example.iam.gserviceaccount.com"}
	signingClient, err := NewClient(signer)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if _, err := NewObjectStore(nil, signingClient); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewObjectStore(&gcs.Client{}, nil); err == nil {
		t.Fatal("expected error for nil signer")
	}
}
