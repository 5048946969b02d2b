package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "animation.gif", MIME: "image/gif", Data: []byte("GIF89a")},
		{Filename: "request.json", MIME: "application/json", Data: []byte(`{"duration":3}`)},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries: got %d want 2", len(zr.File))
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if zr.File[1].Name != "request.json" || string(body) != `{"duration":3}` {
		t.Fatalf("entry mismatch: %s %q", zr.File[1].Name, body)
	}
}

func TestArchiveAssetsRejectsDuplicates(t *testing.T) {
	_, err := ArchiveAssets([]Asset{{Filename: "a.mp4"}, {Filename: "a.mp4"}})
	if err == nil {
		t.Fatalf("expected duplicate filename error")
	}
}
