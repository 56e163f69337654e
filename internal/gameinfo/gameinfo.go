// Package gameinfo renders and writes the game's gameinfo.txt, the file the
// loader reads at startup to decide which search paths to mount.
package gameinfo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// FileName is the name of the config artifact inside the game subdirectory.
	FileName = "gameinfo.txt"

	addonIndent    = "\t\t\t"
	addonSeparator = "Game\t\t\t\t"
)

// WriteError reports a failure to persist the rendered config. The addon
// activation state that triggered the write is not rolled back.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Path returns the location of gameinfo.txt for a game root.
func Path(gameRoot, gameSubdir string) string {
	return filepath.Join(gameRoot, gameSubdir, FileName)
}

// Render produces the full gameinfo.txt text. Enabled addon ids are emitted
// as Game search paths ahead of the stock ones, in the order given. When the
// game is running the addon block is left out entirely, since the running
// session has already mounted its search paths.
func Render(enabledIDs []string, running bool) string {
	var sb strings.Builder
	sb.WriteString(templateHead)

	if !running {
		for _, id := range enabledIDs {
			sb.WriteString("\n")
			sb.WriteString(addonIndent)
			sb.WriteString(addonSeparator)
			sb.WriteString(id)
		}
	}

	sb.WriteString(templateTail)
	return ToCRLF(sb.String())
}

// ToCRLF converts every bare line feed to a carriage-return/line-feed pair.
// Line feeds already preceded by a carriage return are left alone.
func ToCRLF(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + strings.Count(text, "\n"))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' && (i == 0 || text[i-1] != '\r') {
			sb.WriteByte('\r')
		}
		sb.WriteByte(c)
	}

	return sb.String()
}

// Write overwrites path with text.
func Write(fs afero.Fs, path, text string) error {
	if err := afero.WriteFile(fs, path, []byte(text), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
