package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/logging"
)

// ArchiveExtension is the file extension of project archives on disk.
const ArchiveExtension = "tml"

const archiveContentType = "application/octet-stream"
const uploadFieldArtifact = "artifact"
const uploadFieldMessage = "message"

// TransferEngine moves project archives between disk and the backend. Upload
// requires a live local lock; this is a client-side contract only, the server
// checks the lease again on its side.
type TransferEngine struct {
	sessions    *SessionManager
	locks       *LockProtocol
	retry       RetryConfig
	downloadDir string
}

func NewTransferEngine(sessions *SessionManager, locks *LockProtocol, retry RetryConfig, downloadDir string) *TransferEngine {
	return &TransferEngine{
		sessions:    sessions,
		locks:       locks,
		retry:       retry,
		downloadDir: downloadDir,
	}
}

// Upload ships the archive bytes and an upload message to the project's
// upload endpoint as a multipart body. The multipart body is rebuilt per
// attempt so every retry carries a fresh boundary.
func (t *TransferEngine) Upload(ctx context.Context, project api.Project, archive []byte, message string) error {
	_, err := t.sessions.Current()
	if err != nil {
		return err
	}

	if _, ok := t.locks.Held(project.ID); !ok {
		return fmt.Errorf("upload of project %s: %w", project.ID, ErrLockRequired)
	}

	err = retryDo(ctx, t.retry, "transfer.upload", func() error {
		body, err := EncodeMultipart([]Part{
			FilePart(uploadFieldArtifact, project.ID+"."+ArchiveExtension, archiveContentType, archive),
			StringPart(uploadFieldMessage, message),
		})
		if err != nil {
			return err
		}

		req, err := t.sessions.newRequest(ctx, http.MethodPost, uploadPath(project.ID), bytes.NewReader(body.Bytes))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", body.ContentType)

		resp, err := t.sessions.doRaw(req)
		if err != nil {
			return err
		}
		defer closeBody(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("upload rejected: %w", ErrAuthentication)

		default:
			return fmt.Errorf("%w: %w", ErrUpload, newStatusError(resp))
		}
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("uploaded archive for project %s (%d bytes)", project.ID, len(archive))

	return nil
}

// UploadFile reads the archive from disk and uploads it.
func (t *TransferEngine) UploadFile(ctx context.Context, project api.Project, path, message string) error {
	archive, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", path, err)
	}

	return t.Upload(ctx, project, archive, message)
}

// Download fetches the project archive and writes it atomically to
// {downloadDir}/{projectID}.tml, returning that path. A 422 response maps to
// ErrProjectNotFound.
func (t *TransferEngine) Download(ctx context.Context, project api.Project) (string, error) {
	var archive []byte

	err := retryDo(ctx, t.retry, "transfer.download", func() error {
		req, err := t.sessions.newRequest(ctx, http.MethodGet, downloadPath(project.ID), nil)
		if err != nil {
			return err
		}

		resp, err := t.sessions.doRaw(req)
		if err != nil {
			return err
		}
		defer closeBody(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			archive, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read archive body: %s: %w", err, ErrNetwork)
			}
			return nil

		case resp.StatusCode == http.StatusUnprocessableEntity:
			return fmt.Errorf("download of project %s: %w", project.ID, ErrProjectNotFound)

		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("download rejected: %w", ErrAuthentication)

		default:
			return fmt.Errorf("%w: %w", ErrDownload, newStatusError(resp))
		}
	})
	if err != nil {
		return "", err
	}

	path, err := t.writeArchive(project.ID, archive)
	if err != nil {
		return "", err
	}

	logging.Logger.Infof("downloaded archive for project %s to %s (%d bytes)", project.ID, path, len(archive))

	return path, nil
}

// writeArchive lands the bytes under a temp name first and renames into
// place, so a crashed download never leaves a truncated archive behind.
func (t *TransferEngine) writeArchive(projectID string, archive []byte) (string, error) {
	err := os.MkdirAll(t.downloadDir, 0o755)
	if err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(t.downloadDir, projectID+".*.partial")
	if err != nil {
		return "", fmt.Errorf("failed to create temp archive: %w", err)
	}

	_, err = tmp.Write(archive)
	if err == nil {
		err = tmp.Close()
	} else {
		_ = tmp.Close()
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write archive: %w", err)
	}

	path := filepath.Join(t.downloadDir, projectID+"."+ArchiveExtension)
	err = os.Rename(tmp.Name(), path)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	return path, nil
}

// Verify compares the archive at path against the expected checksum.
func (t *TransferEngine) Verify(path, wantChecksum string) error {
	got, err := ChecksumFile(path)
	if err != nil {
		return err
	}
	if got != wantChecksum {
		return fmt.Errorf("archive %s: got %s, want %s: %w", path, got, wantChecksum, ErrChecksumMismatch)
	}

	return nil
}

// Checksum returns the lowercase hex SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile returns the lowercase hex SHA-256 digest of the file at path.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func uploadPath(projectID string) string {
	return projectsPath + projectID + "/upload/ariane_tml/"
}

func downloadPath(projectID string) string {
	return projectsPath + projectID + "/download/ariane_tml/"
}
