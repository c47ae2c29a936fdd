package vault

import (
	"fmt"
	"log/slog"
	"time"
)

// DailyFolder is the fixed subfolder that holds date-named notes.
const DailyFolder = "Daily"

// DailyNote is the result of opening a daily note.
type DailyNote struct {
	Path  string `json:"path"`
	IsNew bool   `json:"is_new"`
}

// OpenDailyNote returns the daily note for date, creating the Daily folder
// and a templated note when they do not exist yet. Opening an existing
// daily note leaves its content untouched.
func (v *Vault) OpenDailyNote(date time.Time) (DailyNote, error) {
	path := DailyFolder + "/" + date.Format("2006-01-02") + ".md"
	if v.store.Exists(path) {
		return DailyNote{Path: path}, nil
	}
	if !v.store.Exists(DailyFolder) {
		if err := v.store.MakeDir(DailyFolder); err != nil {
			return DailyNote{}, fmt.Errorf("vault: daily folder: %w", err)
		}
	}
	if err := v.store.Write(path, []byte(dailyTemplate(date))); err != nil {
		return DailyNote{}, fmt.Errorf("vault: daily note: %w", err)
	}
	v.logger.Info("vault: daily note created", slog.String("path", path))
	return DailyNote{Path: path, IsNew: true}, nil
}

// dailyTemplate renders the body of a fresh daily note, headed by the long
// date form ("Tuesday, March 5, 2024").
func dailyTemplate(date time.Time) string {
	return "# " + date.Format("Monday, January 2, 2006") + "\n\n" +
		"## Tasks\n\n" +
		"## Notes\n\n" +
		"## Journal\n\n"
}
