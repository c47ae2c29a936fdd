package vault

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/haldor/ansuz/internal/apperr"
	"github.com/haldor/ansuz/internal/pathguard"
)

// AssetsFolder is the subfolder that holds images and other attachments.
const AssetsFolder = "assets"

// SaveAttachment stores binary data under the assets folder, de-duplicating
// the file name by appending -1, -2, … before the extension until a free
// name is found. It returns the root-relative path for embedding in note
// text.
func (v *Vault) SaveAttachment(data []byte, fileName string) (string, error) {
	clean, ok := pathguard.Clean(fileName)
	if !ok {
		return "", fmt.Errorf("vault: attachment %q: %w", fileName, apperr.ErrInvalidName)
	}
	if !v.store.Exists(AssetsFolder) {
		if err := v.store.MakeDir(AssetsFolder); err != nil {
			return "", fmt.Errorf("vault: assets folder: %w", err)
		}
	}

	stem, ext := splitExt(clean)
	path := AssetsFolder + "/" + clean
	for i := 1; v.store.Exists(path); i++ {
		path = AssetsFolder + "/" + stem + "-" + strconv.Itoa(i) + ext
	}

	if err := v.store.Write(path, data); err != nil {
		return "", fmt.Errorf("vault: save attachment: %w", err)
	}
	v.logger.Info("vault: attachment saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return path, nil
}

// splitExt splits "photo.png" into ("photo", ".png"). A name without a dot
// has an empty extension; a leading dot is part of the stem.
func splitExt(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
