package application

import (
	"context"
	"errors"
	"testing"

	"billing-service/internal/domain"

	"github.com/stretchr/testify/require"
)

// scriptedSteps lets each step be failed independently and records the
// order steps ran in.
type scriptedSteps struct {
	release  *domain.Release
	checkErr error
	fail     map[domain.UpdateStep]error
	empty    map[domain.UpdateStep]bool
	ran      []domain.UpdateStep
	deleted  []string
}

func (s *scriptedSteps) InstalledVersion(context.Context) (string, error) { return "1.0.0", nil }

func (s *scriptedSteps) CheckForUpdate(context.Context, string) (*domain.Release, error) {
	s.ran = append(s.ran, domain.UpdateStepCheck)
	return s.release, s.checkErr
}

func (s *scriptedSteps) path(step domain.UpdateStep, p string) (string, error) {
	s.ran = append(s.ran, step)
	if err := s.fail[step]; err != nil {
		return "", err
	}
	if s.empty[step] {
		return "", nil
	}
	return p, nil
}

func (s *scriptedSteps) Download(context.Context, string, bool) (string, error) {
	return s.path(domain.UpdateStepDownload, "/tmp/upload.zip")
}

func (s *scriptedSteps) Unzip(context.Context, string) (string, error) {
	return s.path(domain.UpdateStepUnzip, "/tmp/out")
}

func (s *scriptedSteps) CopyFiles(context.Context, string) error {
	s.ran = append(s.ran, domain.UpdateStepCopy)
	return s.fail[domain.UpdateStepCopy]
}

func (s *scriptedSteps) DeleteFiles(_ context.Context, files []string) error {
	s.ran = append(s.ran, domain.UpdateStepDelete)
	s.deleted = files
	return s.fail[domain.UpdateStepDelete]
}

func (s *scriptedSteps) Migrate(context.Context) error {
	s.ran = append(s.ran, domain.UpdateStepMigrate)
	return s.fail[domain.UpdateStepMigrate]
}

func (s *scriptedSteps) Finish(context.Context, string, string) error {
	s.ran = append(s.ran, domain.UpdateStepFinish)
	return s.fail[domain.UpdateStepFinish]
}

var banner = []string{"Your currently installed version is 1.0.0", "", "Checking for update..."}

func lines(extra ...string) []string { return append(append([]string{}, banner...), extra...) }

func Test_UpdateCommand_EndToEnd(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(fakePlatform{exts: map[string]bool{"zip": true}, version: "8.1.0"})
	f.release.check = domain.ReleaseCheck{Success: true, Version: &domain.Release{
		Version:           "1.1.0",
		MinimumPHPVersion: "7.4.0",
		Extensions:        domain.StringList{"zip"},
		DeletedFiles:      domain.StringList{"old.txt"},
	}}
	f.fs.files["/srv/app/old.txt"] = "stale"
	con := &recordingConsole{answer: true}

	out, err := NewUpdateCommand(f.u, con).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)
	require.Equal(t, lines(
		"✅ zip",
		"✅ php(7.4.0)",
		"Downloading update...",
		"Unzipping update package...",
		"Copying update files...",
		"Deleting unused old files...",
		"Running Migrations...",
		"Finishing update...",
		"Successfully updated to 1.1.0",
	), con.lines)
	require.Equal(t, []string{"Do you wish to update to 1.1.0?"}, con.prompts)
	require.Equal(t, "1.1.0", f.settings.global["version"])
	require.Equal(t, "new", f.fs.files["/srv/app/app/new.txt"])
	require.NotContains(t, f.fs.files, "/srv/app/old.txt")
	require.Equal(t, 1, f.migrator.calls)
	require.Equal(t, []domain.UpdateFinished{{Installed: "1.0.0", Version: "1.1.0"}}, f.events.got)
}

func Test_UpdateCommand_NoUpdate(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{}
	con := &recordingConsole{}

	out, err := NewUpdateCommand(s, con).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeNoUpdate, out)
	require.Equal(t, lines("No Update Available! You are already on the latest version."), con.lines)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck}, s.ran)
}

func Test_UpdateCommand_CheckErrorMeansNoUpdate(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{checkErr: errors.New("Network error during update check")}
	con := &recordingConsole{answer: true}
	var failed []domain.UpdateStep

	out, err := NewUpdateCommand(s, con, WithStepObserver(func(st domain.UpdateStep, ok bool) {
		if !ok {
			failed = append(failed, st)
		}
	})).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeNoUpdate, out)
	require.Equal(t, lines(
		"ERR Network error during update check",
		"No Update Available! You are already on the latest version.",
	), con.lines)
	require.Empty(t, con.prompts)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck}, s.ran)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck}, failed)
}

func Test_UpdateCommand_ReleaseServerDownMeansNoUpdate(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(fakePlatform{})
	f.release.checkErr = errors.New("dial tcp: connection refused")
	con := &recordingConsole{answer: true}

	out, err := NewUpdateCommand(f.u, con).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeNoUpdate, out)
	require.Equal(t, "No Update Available! You are already on the latest version.", con.lines[len(con.lines)-1])
	require.Equal(t, "1.0.0", f.settings.global["version"])
}

func Test_UpdateCommand_RequirementsUnmet(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0", Requirements: []domain.Requirement{
		{Name: "ext1", Satisfied: true},
		{Name: "ext2", Satisfied: false},
	}}}
	con := &recordingConsole{answer: true}

	out, err := NewUpdateCommand(s, con).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeRequirementsUnmet, out)
	require.Equal(t, lines(
		"✅ ext1",
		"❌ ext2",
		"Sorry! Your system does not meet the minimum requirements for this update.",
		"Please retry after installing the required version/extensions.",
	), con.lines)
	require.Empty(t, con.prompts)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck}, s.ran)
}

func Test_UpdateCommand_Declined(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0"}}
	con := &recordingConsole{answer: false}

	out, err := NewUpdateCommand(s, con).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeDeclined, out)
	require.Equal(t, lines(), con.lines)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck}, s.ran)
}

func Test_UpdateCommand_AssumeYesSkipsPrompt(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0"}}
	con := &recordingConsole{answer: false}

	out, err := NewUpdateCommand(s, con, WithAssumeYes(true)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)
	require.Empty(t, con.prompts)
}

func Test_UpdateCommand_FailureAbortsLaterSteps(t *testing.T) {
	t.Parallel()
	cases := []struct {
		step domain.UpdateStep
		ran  []domain.UpdateStep
		msg  string
	}{
		{domain.UpdateStepDownload, []domain.UpdateStep{"check", "download"}, "ERR boom"},
		{domain.UpdateStepUnzip, []domain.UpdateStep{domain.UpdateStepCheck, domain.UpdateStepDownload, domain.UpdateStepUnzip}, "ERR boom"},
		{domain.UpdateStepCopy, []domain.UpdateStep{"check", "download", "unzip", "copy"}, "ERR boom"},
		{domain.UpdateStepDelete, []domain.UpdateStep{"check", "download", "unzip", "copy", "delete"}, "ERR boom"},
		{domain.UpdateStepMigrate, []domain.UpdateStep{"check", "download", "unzip", "copy", "delete", "migrate"}, "ERR boom"},
		{domain.UpdateStepFinish, []domain.UpdateStep{"check", "download", "unzip", "copy", "delete", "migrate", "finish"}, "ERR boom"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.step), func(t *testing.T) {
			t.Parallel()
			s := &scriptedSteps{
				release: &domain.Release{Version: "1.1.0", DeletedFiles: domain.StringList{"a"}},
				fail:    map[domain.UpdateStep]error{tc.step: errors.New("boom")},
			}
			con := &recordingConsole{answer: true}
			var failed []domain.UpdateStep

			out, err := NewUpdateCommand(s, con, WithStepObserver(func(st domain.UpdateStep, ok bool) {
				if !ok {
					failed = append(failed, st)
				}
			})).Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, OutcomeFailed, out)
			require.Equal(t, tc.ran, s.ran)
			require.Equal(t, tc.msg, con.lines[len(con.lines)-1])
			require.NotContains(t, con.lines, "Successfully updated to 1.1.0")
			require.Equal(t, []domain.UpdateStep{tc.step}, failed)
		})
	}
}

func Test_UpdateCommand_EmptyPathsReported(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{
		release: &domain.Release{Version: "1.1.0"},
		empty:   map[domain.UpdateStep]bool{domain.UpdateStepDownload: true},
	}
	con := &recordingConsole{answer: true}

	out, _ := NewUpdateCommand(s, con).Run(context.Background())
	require.Equal(t, OutcomeFailed, out)
	require.Equal(t, "ERR Download exception", con.lines[len(con.lines)-1])

	s = &scriptedSteps{
		release: &domain.Release{Version: "1.1.0"},
		empty:   map[domain.UpdateStep]bool{domain.UpdateStepUnzip: true},
	}
	con = &recordingConsole{answer: true}
	out, _ = NewUpdateCommand(s, con).Run(context.Background())
	require.Equal(t, OutcomeFailed, out)
	require.Equal(t, "ERR Unzipping exception", con.lines[len(con.lines)-1])
}

func Test_UpdateCommand_DeleteSkippedWithoutList(t *testing.T) {
	t.Parallel()
	for _, files := range []domain.StringList{nil, {}} {
		s := &scriptedSteps{release: &domain.Release{Version: "1.1.0", DeletedFiles: files}}
		con := &recordingConsole{answer: true}

		out, err := NewUpdateCommand(s, con).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, OutcomeUpdated, out)
		require.NotContains(t, s.ran, domain.UpdateStepDelete)
		require.NotContains(t, con.lines, "Deleting unused old files...")
	}
}

func Test_UpdateCommand_Locked(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0"}}
	con := &recordingConsole{answer: true}
	lock := &fakeLock{held: true}

	out, err := NewUpdateCommand(s, con, WithUpdateLock(lock)).Run(context.Background())
	require.True(t, IsLocked(err))
	require.Equal(t, OutcomeLocked, out)
	require.Equal(t, []string{"ERR Another update is already in progress."}, con.lines)
	require.Empty(t, s.ran)
	require.Zero(t, lock.released)
}

func Test_UpdateCommand_ReleasesLock(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{}
	lock := &fakeLock{}

	_, err := NewUpdateCommand(s, &recordingConsole{}, WithUpdateLock(lock)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, lock.released)
	require.False(t, lock.held)
}

func Test_UpdateCommand_RefreshesLockBetweenSteps(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0", DeletedFiles: domain.StringList{"a"}}}
	lock := &fakeLock{}

	out, err := NewUpdateCommand(s, &recordingConsole{answer: true}, WithUpdateLock(lock)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)
	// Before download and after download, unzip, copy, delete and migrate.
	require.Equal(t, 6, lock.refreshed)
}

func Test_UpdateCommand_LostLockStopsRun(t *testing.T) {
	t.Parallel()
	s := &scriptedSteps{release: &domain.Release{Version: "1.1.0"}}
	con := &recordingConsole{answer: true}
	lock := &fakeLock{loseAfter: 2}

	out, err := NewUpdateCommand(s, con, WithUpdateLock(lock)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, out)
	require.Equal(t, []domain.UpdateStep{domain.UpdateStepCheck, domain.UpdateStepDownload, domain.UpdateStepUnzip}, s.ran)
	require.Equal(t, "ERR Update lock lost, aborting.", con.lines[len(con.lines)-1])
	require.Equal(t, 1, lock.released)
}
