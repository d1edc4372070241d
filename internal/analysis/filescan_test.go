package analysis

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFileType(t *testing.T) {
	s := NewFileScanner(1024, "")

	cases := []struct {
		path     string
		valid    bool
		category string
	}{
		{"photo.jpg", true, FileCategoryImage},
		{"photo.WEBP", true, FileCategoryImage},
		{"clip.mp4", true, FileCategoryVideo},
		{"notes.pdf", true, FileCategoryDocument},
		{"payload.exe", false, ""},
		{"script.sh", false, ""},
		{"noextension", false, ""},
	}
	for _, tc := range cases {
		valid, category, _ := s.ValidateFileType(tc.path)
		assert.Equal(t, tc.valid, valid, "path: %s", tc.path)
		assert.Equal(t, tc.category, category, "path: %s", tc.path)
	}
}

func TestValidateFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o600))

	s := NewFileScanner(200, "")
	ok, size, err := s.ValidateFileSize(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(100), size)

	s.MaxFileSize = 50
	ok, _, err = s.ValidateFileSize(path)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.ValidateFileSize(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	content := []byte("known content")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	sum := sha256.Sum256(content)

	s := NewFileScanner(1024, "")
	hash, err := s.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)
}

// fakeClamAV answers one SCAN command with the given response line.
func fakeClamAV(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadString('\n')
		_, _ = conn.Write([]byte(response + "\n"))
	}()
	return ln.Addr().String()
}

func TestScanForMalware(t *testing.T) {
	t.Run("clean file", func(t *testing.T) {
		s := NewFileScanner(1024, fakeClamAV(t, "/tmp/f: OK"))
		clean, detail, err := s.ScanForMalware(context.Background(), "/tmp/f")
		require.NoError(t, err)
		assert.True(t, clean)
		assert.Equal(t, "Clean", detail)
	})

	t.Run("infected file", func(t *testing.T) {
		s := NewFileScanner(1024, fakeClamAV(t, "/tmp/f: Eicar-Test-Signature FOUND"))
		clean, detail, err := s.ScanForMalware(context.Background(), "/tmp/f")
		require.NoError(t, err)
		assert.False(t, clean)
		assert.Equal(t, "Eicar-Test-Signature", detail)
	})

	t.Run("daemon unreachable is an error, not clean", func(t *testing.T) {
		s := NewFileScanner(1024, "127.0.0.1:1")
		clean, _, err := s.ScanForMalware(context.Background(), "/tmp/f")
		require.Error(t, err)
		assert.False(t, clean)
	})
}

func writePNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
	return path
}

func TestAnalyzeImageFile(t *testing.T) {
	s := NewFileScanner(1024*1024, "")

	t.Run("normal image", func(t *testing.T) {
		path := writePNG(t, t.TempDir(), 100, 100)
		safe, detail, err := s.AnalyzeImageFile(path)
		require.NoError(t, err)
		assert.True(t, safe)
		assert.Equal(t, "Image appears safe", detail)
	})

	t.Run("tiny image flagged", func(t *testing.T) {
		path := writePNG(t, t.TempDir(), 4, 4)
		safe, detail, err := s.AnalyzeImageFile(path)
		require.NoError(t, err)
		assert.False(t, safe)
		assert.Equal(t, "Image too small", detail)
	})

	t.Run("not an image", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "img.png")
		require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o600))
		_, _, err := s.AnalyzeImageFile(path)
		assert.Error(t, err)
	})
}

func TestComprehensiveScan_RejectsBadType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o600))

	s := NewFileScanner(1024, "127.0.0.1:1")
	report := s.ComprehensiveScan(context.Background(), path)

	assert.False(t, report.FileTypeValid)
	assert.False(t, report.OverallSafe)
	assert.NotEmpty(t, report.FileHash)
	assert.Contains(t, report.Errors, "Invalid file type")
	// The scan short-circuited before ClamAV.
	assert.Equal(t, "Not scanned", report.MalwareDetail)
}

func TestComprehensiveScan_FullPass(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, 64, 64)

	s := NewFileScanner(1024*1024, fakeClamAV(t, path+": OK"))
	report := s.ComprehensiveScan(context.Background(), path)

	assert.True(t, report.FileTypeValid)
	assert.Equal(t, FileCategoryImage, report.FileCategory)
	assert.True(t, report.SizeValid)
	assert.True(t, report.MalwareClean)
	assert.True(t, report.ContentSafe)
	assert.True(t, report.OverallSafe)
	assert.Empty(t, report.Errors)
}
