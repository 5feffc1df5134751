package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	maxAvatarBytes = 5 << 20
	avatarsDir     = "avatars"
)

var (
	ErrInvalidImageType = errors.New("invalid file type. Only JPG, PNG, GIF, WEBP allowed")
	ErrImageTooLarge    = errors.New("file too large. Maximum size is 5MB")

	imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// AvatarStore keeps profile images on local disk below root. Files are served
// by the router under urlPrefix.
type AvatarStore struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

func NewAvatarStore(root, urlPrefix string) (*AvatarStore, error) {
	if err := os.MkdirAll(filepath.Join(root, avatarsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &AvatarStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), now: time.Now}, nil
}

func (s *AvatarStore) Root() string { return s.root }

// Save writes src as the new avatar of userID and returns its public URL.
func (s *AvatarStore) Save(userID uint, filename string, size int64, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(imageExts, ext) {
		return "", ErrInvalidImageType
	}
	if size > maxAvatarBytes {
		return "", ErrImageTooLarge
	}

	uid := strconv.FormatUint(uint64(userID), 10)
	dir := filepath.Join(s.root, avatarsDir, uid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}
	name := fmt.Sprintf("avatar_%d%s", s.now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// the declared size may lie, so the copy is bounded as well
	n, err := io.Copy(dst, io.LimitReader(src, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if n > maxAvatarBytes {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", ErrImageTooLarge
	}
	return path.Join(s.urlPrefix, avatarsDir, uid, name), nil
}

// Delete removes a file previously returned by Save. URLs from elsewhere are
// ignored.
func (s *AvatarStore) Delete(url string) error {
	rel, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
