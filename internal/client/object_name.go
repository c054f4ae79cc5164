package client

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectName builds "<folder>/<yyyyMMddHHmmss>-<uuid><ext>" keeping the original extension.
func objectName(folder, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := now.UTC().Format("20060102150405") + "-" + uuid.NewString() + ext
	return path.Join(strings.Trim(folder, "/"), name)
}
