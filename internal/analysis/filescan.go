package analysis

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"mime"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// File categories recognized by the scanner.
const (
	FileCategoryImage    = "image"
	FileCategoryVideo    = "video"
	FileCategoryDocument = "document"
)

var allowedExtensions = map[string][]string{
	FileCategoryImage:    {"jpg", "jpeg", "png", "gif", "bmp", "webp"},
	FileCategoryVideo:    {"mp4", "avi", "mov", "wmv", "flv", "webm"},
	FileCategoryDocument: {"pdf", "doc", "docx", "txt", "rtf", "odt"},
}

var mimePrefixes = map[string][]string{
	FileCategoryImage:    {"image/"},
	FileCategoryVideo:    {"video/"},
	FileCategoryDocument: {"application/pdf", "application/msword", "text/", "application/vnd."},
}

// Image dimension sanity bounds, in pixels per side.
const (
	minImageDimension = 10
	maxImageDimension = 10000
)

// FileScanReport aggregates every check run on one file.
type FileScanReport struct {
	FilePath      string    `json:"file_path"`
	Timestamp     time.Time `json:"timestamp"`
	FileHash      string    `json:"file_hash,omitempty"`
	FileSize      int64     `json:"file_size"`
	FileTypeValid bool      `json:"file_type_valid"`
	FileCategory  string    `json:"file_category,omitempty"`
	MimeType      string    `json:"mime_type,omitempty"`
	SizeValid     bool      `json:"size_valid"`
	MalwareClean  bool      `json:"malware_clean"`
	MalwareDetail string    `json:"malware_detail,omitempty"`
	ContentSafe   bool      `json:"content_safe"`
	ContentDetail string    `json:"content_detail,omitempty"`
	OverallSafe   bool      `json:"overall_safe"`
	Errors        []string  `json:"errors,omitempty"`
}

// FileScanner runs file-level screening: type and size validation, malware
// scanning through a ClamAV daemon, content hashing, and image dimension
// sanity checks.
type FileScanner struct {
	MaxFileSize int64
	ClamAVAddr  string
	DialTimeout time.Duration
}

// NewFileScanner returns a scanner with the given size cap and ClamAV address.
func NewFileScanner(maxFileSize int64, clamAVAddr string) *FileScanner {
	return &FileScanner{
		MaxFileSize: maxFileSize,
		ClamAVAddr:  clamAVAddr,
		DialTimeout: 30 * time.Second,
	}
}

// ValidateFileType checks the extension against the allow-list and
// cross-checks the extension-derived MIME type against the category.
func (s *FileScanner) ValidateFileType(path string) (bool, string, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mimeType := mime.TypeByExtension("." + ext)

	for category, exts := range allowedExtensions {
		for _, allowed := range exts {
			if ext != allowed {
				continue
			}
			if mimeType == "" || mimeMatchesCategory(mimeType, category) {
				return true, category, mimeType
			}
		}
	}
	return false, "", mimeType
}

func mimeMatchesCategory(mimeType, category string) bool {
	for _, prefix := range mimePrefixes[category] {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks the file against the configured size cap.
func (s *FileScanner) ValidateFileSize(path string) (bool, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, 0, err
	}
	return info.Size() <= s.MaxFileSize, info.Size(), nil
}

// HashFile returns the SHA-256 hex digest of the file contents.
func (s *FileScanner) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ScanForMalware asks the ClamAV daemon to scan the file. Returns clean and
// the daemon's detail string. A connection or protocol failure is an error:
// callers must degrade to human review, never treat it as clean.
func (s *FileScanner) ScanForMalware(ctx context.Context, path string) (bool, string, error) {
	d := net.Dialer{Timeout: s.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", s.ClamAVAddr)
	if err != nil {
		return false, "", fmt.Errorf("clamav connect failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.DialTimeout))
	}

	if _, err := fmt.Fprintf(conn, "SCAN %s\n", path); err != nil {
		return false, "", fmt.Errorf("clamav scan command failed: %w", err)
	}

	response, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && response == "" {
		return false, "", fmt.Errorf("clamav response read failed: %w", err)
	}
	response = strings.TrimSpace(response)

	switch {
	case strings.Contains(response, "OK"):
		return true, "Clean", nil
	case strings.Contains(response, "FOUND"):
		detail := response
		if idx := strings.Index(response, ":"); idx >= 0 {
			detail = strings.TrimSpace(strings.TrimSuffix(response[idx+1:], "FOUND"))
		}
		return false, detail, nil
	default:
		return false, "", fmt.Errorf("clamav scan failed: %q", response)
	}
}

// AnalyzeImageFile decodes the image header and checks dimension sanity.
// Tiny images can smuggle hidden content; huge ones are a decompression
// hazard.
func (s *FileScanner) AnalyzeImageFile(path string) (bool, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, "", err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return false, "", fmt.Errorf("image decode failed: %w", err)
	}

	switch {
	case cfg.Width < minImageDimension || cfg.Height < minImageDimension:
		return false, "Image too small", nil
	case cfg.Width > maxImageDimension || cfg.Height > maxImageDimension:
		return false, "Image too large", nil
	default:
		return true, "Image appears safe", nil
	}
}

// ComprehensiveScan runs every check in order, short-circuiting on the
// first failure. The report always carries whatever was established before
// the failure.
func (s *FileScanner) ComprehensiveScan(ctx context.Context, path string) *FileScanReport {
	report := &FileScanReport{
		FilePath:      path,
		Timestamp:     time.Now().UTC(),
		MalwareDetail: "Not scanned",
		ContentDetail: "Not analyzed",
	}

	if hash, err := s.HashFile(path); err == nil {
		report.FileHash = hash
	} else {
		report.Errors = append(report.Errors, fmt.Sprintf("hash error: %v", err))
	}

	typeValid, category, mimeType := s.ValidateFileType(path)
	report.FileTypeValid = typeValid
	report.FileCategory = category
	report.MimeType = mimeType
	if !typeValid {
		report.Errors = append(report.Errors, "Invalid file type")
		return report
	}

	sizeValid, size, err := s.ValidateFileSize(path)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("size check error: %v", err))
		return report
	}
	report.SizeValid = sizeValid
	report.FileSize = size
	if !sizeValid {
		report.Errors = append(report.Errors, "File too large")
		return report
	}

	clean, detail, err := s.ScanForMalware(ctx, path)
	if err != nil {
		report.MalwareDetail = err.Error()
		report.Errors = append(report.Errors, fmt.Sprintf("scan error: %v", err))
		return report
	}
	report.MalwareClean = clean
	report.MalwareDetail = detail
	if !clean {
		report.Errors = append(report.Errors, fmt.Sprintf("Malware detected: %s", detail))
		return report
	}

	if category == FileCategoryImage {
		safe, contentDetail, err := s.AnalyzeImageFile(path)
		if err != nil {
			report.ContentDetail = err.Error()
			report.Errors = append(report.Errors, fmt.Sprintf("content analysis error: %v", err))
			return report
		}
		report.ContentSafe = safe
		report.ContentDetail = contentDetail
		if !safe {
			report.Errors = append(report.Errors, fmt.Sprintf("Content issue: %s", contentDetail))
			return report
		}
	} else {
		report.ContentSafe = true
		report.ContentDetail = "Content analysis not applicable"
	}

	report.OverallSafe = report.FileTypeValid && report.SizeValid && report.MalwareClean && report.ContentSafe
	return report
}
