package addons

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Mirror copies package files into per-addon staging directories under the
// game root, where the loader picks them up as <root>/<addonId>/pak01_dir.vpk.
type Mirror struct {
	fs        afero.Fs
	sourceDir string
	stageRoot string
	log       *slog.Logger
}

// NewMirror creates a Mirror that copies from sourceDir into stageRoot.
func NewMirror(fs afero.Fs, sourceDir, stageRoot string, log *slog.Logger) *Mirror {
	return &Mirror{
		fs:        fs,
		sourceDir: sourceDir,
		stageRoot: stageRoot,
		log:       log,
	}
}

// StagingDir returns the staging directory for an addon id.
func (m *Mirror) StagingDir(addonID string) string {
	return filepath.Join(m.stageRoot, addonID)
}

// Stage creates the entry's staging directory and copies its package into
// it. A directory left behind by a failed copy is removed again.
func (m *Mirror) Stage(e Entry) error {
	dir := m.StagingDir(e.AddonID)

	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return &MirrorError{Name: e.Name, AddonID: e.AddonID, Op: "create staging directory for", Err: err}
	}

	src := filepath.Join(m.sourceDir, e.Name)
	dst := filepath.Join(dir, StagedFileName)
	if err := m.copyFile(src, dst); err != nil {
		if rmErr := m.fs.RemoveAll(dir); rmErr != nil {
			m.log.Warn("Cannot remove half-staged addon", slog.String("addon_id", e.AddonID), slog.Any("error", rmErr))
		}
		return &MirrorError{Name: e.Name, AddonID: e.AddonID, Op: "copy", Err: err}
	}

	return nil
}

// Unstage removes the entry's staging directory and everything in it.
func (m *Mirror) Unstage(e Entry) error {
	if err := m.fs.RemoveAll(m.StagingDir(e.AddonID)); err != nil {
		return &MirrorError{Name: e.Name, AddonID: e.AddonID, Op: "remove staging directory for", Err: err}
	}
	return nil
}

// Restage recreates the staging directory from scratch. A failure to remove
// the old directory is logged and does not stop the copy.
func (m *Mirror) Restage(e Entry) error {
	if err := m.fs.RemoveAll(m.StagingDir(e.AddonID)); err != nil {
		m.log.Warn("Cannot remove staging directory before recreate",
			slog.String("addon", e.Name), slog.String("addon_id", e.AddonID), slog.Any("error", err))
	}
	return m.Stage(e)
}

// IsStaged reports whether the entry's staged package file exists.
func (m *Mirror) IsStaged(e Entry) bool {
	info, err := m.fs.Stat(filepath.Join(m.StagingDir(e.AddonID), StagedFileName))
	return err == nil && info.Mode().IsRegular()
}

// StagingExists reports whether the entry's staging directory exists at all.
func (m *Mirror) StagingExists(e Entry) bool {
	ok, err := afero.DirExists(m.fs, m.StagingDir(e.AddonID))
	return err == nil && ok
}

// StagedIDs lists the addon ids that have a staging directory under the
// game root, whether or not an entry still owns them.
func (m *Mirror) StagedIDs() ([]string, error) {
	infos, err := afero.ReadDir(m.fs, m.stageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging root: %w", err)
	}

	var ids []string
	for _, info := range infos {
		if info.IsDir() && IsAddonID(info.Name()) {
			ids = append(ids, info.Name())
		}
	}
	return ids, nil
}

func (m *Mirror) copyFile(src, dst string) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source package: %w", err)
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create staged package: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy package data: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close staged package: %w", err)
	}

	return nil
}
