package media_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/citymarket/marketplace/internal/media"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestDetectImage_AcceptsPNG(t *testing.T) {
	mime, err := media.DetectImage(pngHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
}

func TestDetectImage_RejectsText(t *testing.T) {
	_, err := media.DetectImage([]byte("#!/bin/sh\necho hi\n"))
	if !errors.Is(err, media.ErrNotAnImage) {
		t.Errorf("want ErrNotAnImage, got %v", err)
	}
}

func TestNewUploader_EmptyURL_Disabled(t *testing.T) {
	u, err := media.NewUploader("", slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = u.Upload(context.Background(), pngHeader, "listings")
	if !errors.Is(err, media.ErrUploadsDisabled) {
		t.Errorf("want ErrUploadsDisabled, got %v", err)
	}
}
