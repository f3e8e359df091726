package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"billing-service/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakeSettings struct {
	company map[int64]map[string]string
	global  map[string]string
	setErr  error
}

func (f *fakeSettings) GetCompanySetting(_ context.Context, companyID int64, key string) (string, error) {
	v, ok := f.company[companyID][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *fakeSettings) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := f.global[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *fakeSettings) SetSetting(_ context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.global == nil {
		f.global = map[string]string{}
	}
	f.global[key] = value
	return nil
}

type fakeCurrencies struct {
	byID map[int64]domain.Currency
}

func (f *fakeCurrencies) GetByID(_ context.Context, id int64) (domain.Currency, error) {
	c, ok := f.byID[id]
	if !ok {
		return domain.Currency{}, ErrNotFound
	}
	return c, nil
}

type fakeProviders struct {
	list  []domain.ExchangeRateProvider
	err   error
	calls int
}

func (f *fakeProviders) ListActiveSupporting(_ context.Context, companyID int64, code string) ([]domain.ExchangeRateProvider, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ExchangeRateProvider
	for _, p := range f.list {
		if p.CompanyID == companyID && p.Active && p.Supports(code) {
			out = append(out, p)
		}
	}
	return out, nil
}

type logKey struct{ base, currency int64 }

type fakeRateLogs struct {
	rates map[logKey]decimal.Decimal
	err   error
	calls int
}

func (f *fakeRateLogs) LatestRate(_ context.Context, baseID, currencyID int64) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Decimal{}, f.err
	}
	r, ok := f.rates[logKey{baseID, currencyID}]
	if !ok {
		return decimal.Decimal{}, ErrNotFound
	}
	return r, nil
}

type driverCall struct {
	provider int64
	from, to string
}

type fakeDriver struct {
	out   domain.RateResult
	err   error
	calls []driverCall

	listed   domain.RateResult
	listedBy []domain.ExchangeRateProvider
}

func (f *fakeDriver) SupportedCurrencies(_ context.Context, p domain.ExchangeRateProvider) domain.RateResult {
	f.listedBy = append(f.listedBy, p)
	return f.listed
}

func (f *fakeDriver) ExchangeRate(_ context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error) {
	f.calls = append(f.calls, driverCall{p.ID, from, to})
	if f.err != nil {
		return domain.RateResult{}, f.err
	}
	return f.out, nil
}

type fakeRelease struct {
	check       domain.ReleaseCheck
	checkErr    error
	payload     string
	downloadErr error
	checked     []string
	fromCommand []bool
}

func (f *fakeRelease) CheckLatest(_ context.Context, installed string) (domain.ReleaseCheck, error) {
	f.checked = append(f.checked, installed)
	return f.check, f.checkErr
}

func (f *fakeRelease) Download(_ context.Context, _ string, fromCommand bool, dst io.Writer) error {
	f.fromCommand = append(f.fromCommand, fromCommand)
	if f.downloadErr != nil {
		return f.downloadErr
	}
	_, err := io.WriteString(dst, f.payload)
	return err
}

type fakePlatform struct {
	exts    map[string]bool
	version string
}

func (f fakePlatform) HasExtension(name string) bool { return f.exts[name] }
func (f fakePlatform) RuntimeVersion() string        { return f.version }

// memFS records files and directories by path. Directories are implied by
// their entries in dirs; CopyDir copies every file under src.
type memFS struct {
	files   map[string]string
	dirs    map[string]bool
	removed []string
	copyErr error
}

func newMemFS() *memFS {
	return &memFS{files: map[string]string{}, dirs: map[string]bool{}}
}

func (m *memFS) Exists(path string) bool {
	if _, ok := m.files[path]; ok {
		return true
	}
	return m.dirs[path]
}

func (m *memFS) MkdirAll(path string) error {
	m.dirs[path] = true
	return nil
}

type memFile struct {
	bytes.Buffer
	fs   *memFS
	path string
}

func (f *memFile) Close() error {
	f.fs.files[f.path] = f.String()
	return nil
}

func (m *memFS) Create(path string) (io.WriteCloser, error) {
	return &memFile{fs: m, path: path}, nil
}

func (m *memFS) Remove(path string) error {
	m.removed = append(m.removed, path)
	delete(m.files, path)
	return nil
}

func (m *memFS) RemoveAll(path string) error {
	m.removed = append(m.removed, path)
	for p := range m.files {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, path+"/") {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *memFS) CopyDir(src, dst string) error {
	if m.copyErr != nil {
		return m.copyErr
	}
	for p, body := range m.files {
		if strings.HasPrefix(p, src+"/") {
			m.files[dst+strings.TrimPrefix(p, src)] = body
		}
	}
	return nil
}

// fakeExtractor places the given files under dest, keyed by relative path.
type fakeExtractor struct {
	fs    *memFS
	files map[string]string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, dest string) error {
	if f.err != nil {
		return f.err
	}
	for rel, body := range f.files {
		f.fs.files[dest+"/"+rel] = body
	}
	f.fs.dirs[dest+"/Crater"] = true
	return nil
}

type fakeMigrator struct {
	err   error
	calls int
}

func (f *fakeMigrator) Migrate(context.Context) error {
	f.calls++
	return f.err
}

type fakeEvents struct {
	got []domain.UpdateFinished
}

func (f *fakeEvents) UpdateFinished(_ context.Context, ev domain.UpdateFinished) error {
	f.got = append(f.got, ev)
	return nil
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return "id" + string(rune('0'+s.n))
}

// recordingConsole captures output lines, prefixing errors with "ERR ".
type recordingConsole struct {
	lines   []string
	answer  bool
	prompts []string
}

func (c *recordingConsole) Info(msg string)  { c.lines = append(c.lines, msg) }
func (c *recordingConsole) Error(msg string) { c.lines = append(c.lines, "ERR "+msg) }
func (c *recordingConsole) Line()            { c.lines = append(c.lines, "") }
func (c *recordingConsole) Confirm(q string) bool {
	c.prompts = append(c.prompts, q)
	return c.answer
}

type fakeLock struct {
	held      bool
	err       error
	released  int
	refreshed int
	// loseAfter makes the refresh numbered loseAfter+1 fail; zero never fails.
	loseAfter int
}

func (l *fakeLock) TryAcquire(context.Context) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) Refresh(context.Context) error {
	l.refreshed++
	if l.loseAfter > 0 && l.refreshed > l.loseAfter {
		return ErrLockLost
	}
	return nil
}

func (l *fakeLock) Release(context.Context) error {
	l.held = false
	l.released++
	return nil
}
