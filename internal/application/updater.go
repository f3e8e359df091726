package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"billing-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

const settingVersion = "version"

type UpdaterConfig struct {
	StoragePath string
	InstallRoot string
	// ReleaseDir is the subtree inside an unpacked release that mirrors the
	// install root.
	ReleaseDir string
}

// Updater performs the individual steps of a self-update. Each step is
// usable on its own; the update command and the web wizard sequence them.
type Updater struct {
	cfg       UpdaterConfig
	settings  SettingsRepo
	release   ReleaseClient
	platform  Platform
	fs        FileSystem
	extractor ArchiveExtractor
	migrator  SchemaMigrator
	events    EventSink
	ids       IDGen
	log       *zap.Logger
}

type UpdaterOption func(*Updater)

func WithUpdaterLogger(l *zap.Logger) UpdaterOption {
	return func(u *Updater) { u.log = l }
}

func WithIDGen(g IDGen) UpdaterOption {
	return func(u *Updater) { u.ids = g }
}

func NewUpdater(cfg UpdaterConfig, settings SettingsRepo, release ReleaseClient, platform Platform, fs FileSystem, extractor ArchiveExtractor, migrator SchemaMigrator, events EventSink, opts ...UpdaterOption) *Updater {
	if cfg.ReleaseDir == "" {
		cfg.ReleaseDir = "Crater"
	}
	u := &Updater{
		cfg:       cfg,
		settings:  settings,
		release:   release,
		platform:  platform,
		fs:        fs,
		extractor: extractor,
		migrator:  migrator,
		events:    events,
		ids:       defaultIDGen{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Updater) InstalledVersion(ctx context.Context) (string, error) {
	v, err := u.settings.GetSetting(ctx, settingVersion)
	if err != nil {
		return "", fmt.Errorf("installed version: %w", err)
	}
	return v, nil
}

// CheckForUpdate asks the release server for a newer version. A nil release
// with a nil error means there is nothing to install.
func (u *Updater) CheckForUpdate(ctx context.Context, installed string) (*domain.Release, error) {
	res, err := u.release.CheckLatest(ctx, installed)
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Version == nil || res.Version.Version == "" {
		return nil, nil
	}
	rel := *res.Version
	if len(rel.Extensions) > 0 {
		reqs := make([]domain.Requirement, 0, len(rel.Extensions)+1)
		for _, ext := range rel.Extensions {
			reqs = append(reqs, domain.Requirement{Name: ext, Satisfied: u.platform.HasExtension(ext)})
		}
		reqs = append(reqs, domain.Requirement{
			Name:      "php(" + rel.MinimumPHPVersion + ")",
			Satisfied: versionAtLeast(u.platform.RuntimeVersion(), rel.MinimumPHPVersion),
		})
		rel.Requirements = reqs
	}
	return &rel, nil
}

// Download fetches the release archive into a fresh scratch directory and
// returns the archive path.
func (u *Updater) Download(ctx context.Context, version string, fromCommand bool) (string, error) {
	dir := filepath.Join(u.cfg.StoragePath, "app", "temp-"+u.ids.NewID())
	if err := u.fs.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	path := filepath.Join(dir, "upload.zip")
	f, err := u.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	err = u.release.Download(ctx, version, fromCommand, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := u.fs.RemoveAll(dir); rerr != nil {
			u.log.Warn("update.cleanup_failed", zap.String("path", dir), zap.Error(rerr))
		}
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	u.log.Info("update.downloaded", zap.String("version", version), zap.String("path", path))
	return path, nil
}

// Unzip extracts the archive into a fresh directory. Extraction is best
// effort: the directory is returned even if the archive could not be read.
// The archive itself is always removed.
func (u *Updater) Unzip(ctx context.Context, zipPath string) (string, error) {
	if !u.inScratch(zipPath, "temp-", 2) {
		return "", fmt.Errorf("unzip: %s: %w", zipPath, ErrInvalidPath)
	}
	if !u.fs.Exists(zipPath) {
		return "", fmt.Errorf("%w: %s", ErrZipNotFound, zipPath)
	}
	dir := filepath.Join(u.cfg.StoragePath, "app", "temp2-"+u.ids.NewID())
	if err := u.fs.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("unzip: %w", err)
	}
	if err := u.extractor.Extract(ctx, zipPath, dir); err != nil {
		u.log.Warn("update.extract_failed", zap.String("archive", zipPath), zap.Error(err))
	}
	if err := u.fs.Remove(zipPath); err != nil {
		u.log.Warn("update.cleanup_failed", zap.String("path", zipPath), zap.Error(err))
	}
	return dir, nil
}

// CopyFiles overlays the release subtree of dir onto the install root and
// removes dir afterwards. On failure dir is left in place.
func (u *Updater) CopyFiles(_ context.Context, dir string) error {
	if !u.inScratch(dir, "temp2-", 1) {
		return fmt.Errorf("copy files: %s: %w", dir, ErrInvalidPath)
	}
	src := filepath.Join(dir, u.cfg.ReleaseDir)
	if !u.fs.Exists(src) {
		return fmt.Errorf("copy files: %s: %w", src, ErrNotFound)
	}
	if err := u.fs.CopyDir(src, u.cfg.InstallRoot); err != nil {
		return fmt.Errorf("copy files: %w", err)
	}
	if err := u.fs.RemoveAll(dir); err != nil {
		u.log.Warn("update.cleanup_failed", zap.String("path", dir), zap.Error(err))
	}
	return nil
}

// DeleteFiles removes files made obsolete by the release. Missing files and
// paths outside the install root are skipped.
func (u *Updater) DeleteFiles(_ context.Context, files []string) error {
	for _, name := range files {
		path, ok := u.withinRoot(name)
		if !ok {
			u.log.Warn("update.delete_refused", zap.String("file", name))
			continue
		}
		if err := u.fs.Remove(path); err != nil {
			u.log.Warn("update.delete_failed", zap.String("file", name), zap.Error(err))
		}
	}
	return nil
}

func (u *Updater) Migrate(ctx context.Context) error {
	if err := u.migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Finish records the new version and announces it.
func (u *Updater) Finish(ctx context.Context, installed, version string) error {
	if err := u.settings.SetSetting(ctx, settingVersion, version); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	if err := u.events.UpdateFinished(ctx, domain.UpdateFinished{Installed: installed, Version: version}); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	return nil
}

func (u *Updater) withinRoot(name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) {
		return "", false
	}
	path := filepath.Join(u.cfg.InstallRoot, name)
	rel, err := filepath.Rel(u.cfg.InstallRoot, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// inScratch reports whether path lies depth levels below <storage>/app and
// its first element there carries prefix. Download writes temp-*/upload.zip
// and Unzip creates temp2-*, so these are the only inputs the later steps
// accept.
func (u *Updater) inScratch(path, prefix string, depth int) bool {
	if path == "" || u.cfg.StoragePath == "" {
		return false
	}
	root, err := filepath.Abs(filepath.Join(u.cfg.StoragePath, "app"))
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != depth || !strings.HasPrefix(parts[0], prefix) || len(parts[0]) == len(prefix) {
		return false
	}
	for _, p := range parts {
		if p == ".." || p == "." || p == "" {
			return false
		}
	}
	return true
}

// versionAtLeast compares dotted versions; an empty minimum always passes.
func versionAtLeast(have, want string) bool {
	if want == "" {
		return true
	}
	return semver.Compare(canonical(have), canonical(want)) >= 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
