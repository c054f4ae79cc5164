package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const MaxVideoSize int64 = 100 * 1024 * 1024

const (
	photoFolder       = "issues/photos"
	videoFolder       = "issues/videos"
	updatePhotoFolder = "updates/photos"
)

// MediaFile is an uploaded file as received from the client.
type MediaFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func isPhoto(f MediaFile) bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

func isVideo(f MediaFile) bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "video/")
}

func validatePhotos(photos []MediaFile) []string {
	var violations []string
	for _, f := range photos {
		if !isPhoto(f) {
			violations = append(violations, fmt.Sprintf("photo %q must have an image/* content type, got %q", f.Filename, f.ContentType))
		}
	}
	return violations
}

func validateVideos(videos []MediaFile) []string {
	var violations []string
	for _, f := range videos {
		if !isVideo(f) {
			violations = append(violations, fmt.Sprintf("video %q must have a video/* content type, got %q", f.Filename, f.ContentType))
		}
		if f.Size > MaxVideoSize {
			violations = append(violations, fmt.Sprintf("video %q exceeds the 100 MB size limit", f.Filename))
		}
	}
	return violations
}

// uploader pushes media to storage and can undo what it pushed.
type uploader struct {
	storage Storage
	log     zerolog.Logger
}

// uploadAll stops at the first failure and returns the urls uploaded so far.
func (u uploader) uploadAll(ctx context.Context, folder string, files []MediaFile) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := u.upload(ctx, folder, f)
		if err != nil {
			return urls, fmt.Errorf("%w: %s: %v", ErrUpload, f.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (u uploader) upload(ctx context.Context, folder string, f MediaFile) (string, error) {
	body, err := f.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	return u.storage.Upload(ctx, folder, f.Filename, f.ContentType, body)
}

// discard deletes media whose owning row was never committed.
func (u uploader) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := u.storage.Delete(ctx, url); err != nil {
			u.log.Warn().Err(err).Str("url", url).Msg("failed to discard uploaded media")
		}
	}
}
