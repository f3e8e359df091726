package application

import (
	"context"
	"errors"

	"billing-service/internal/domain"

	"go.uber.org/zap"
)

// UpdateSteps is the step surface the update command drives. *Updater
// implements it.
type UpdateSteps interface {
	InstalledVersion(ctx context.Context) (string, error)
	CheckForUpdate(ctx context.Context, installed string) (*domain.Release, error)
	Download(ctx context.Context, version string, fromCommand bool) (string, error)
	Unzip(ctx context.Context, zipPath string) (string, error)
	CopyFiles(ctx context.Context, dir string) error
	DeleteFiles(ctx context.Context, files []string) error
	Migrate(ctx context.Context) error
	Finish(ctx context.Context, installed, version string) error
}

// StepResult is what every pipeline step reports back to the command.
type StepResult struct {
	OK      bool
	Path    string
	Message string
}

type Outcome string

const (
	OutcomeUpdated           Outcome = "updated"
	OutcomeNoUpdate          Outcome = "no_update"
	OutcomeRequirementsUnmet Outcome = "requirements_unmet"
	OutcomeDeclined          Outcome = "declined"
	OutcomeFailed            Outcome = "failed"
	OutcomeLocked            Outcome = "locked"
)

// UpdateCommand runs the whole self-update against a console: check,
// confirm, download, unzip, copy, delete obsolete files, migrate, finish.
// The first failing step stops the run; nothing is rolled back.
type UpdateCommand struct {
	steps     UpdateSteps
	console   Console
	lock      UpdateLock
	assumeYes bool
	observe   func(step domain.UpdateStep, ok bool)
	log       *zap.Logger
}

type UpdateCommandOption func(*UpdateCommand)

// WithAssumeYes skips the confirmation prompt.
func WithAssumeYes(yes bool) UpdateCommandOption {
	return func(c *UpdateCommand) { c.assumeYes = yes }
}

func WithUpdateLock(l UpdateLock) UpdateCommandOption {
	return func(c *UpdateCommand) { c.lock = l }
}

func WithStepObserver(fn func(step domain.UpdateStep, ok bool)) UpdateCommandOption {
	return func(c *UpdateCommand) { c.observe = fn }
}

func WithCommandLogger(l *zap.Logger) UpdateCommandOption {
	return func(c *UpdateCommand) { c.log = l }
}

func NewUpdateCommand(steps UpdateSteps, console Console, opts ...UpdateCommandOption) *UpdateCommand {
	c := &UpdateCommand{
		steps:   steps,
		console: console,
		lock:    NoopLock{},
		observe: func(domain.UpdateStep, bool) {},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the update. The returned error is non-nil only when the lock
// backend itself fails; step failures are reported through the console and
// the outcome.
func (c *UpdateCommand) Run(ctx context.Context) (Outcome, error) {
	ok, err := c.lock.TryAcquire(ctx)
	if err != nil {
		return OutcomeFailed, err
	}
	if !ok {
		c.console.Error("Another update is already in progress.")
		return OutcomeLocked, ErrUpdateInProgress
	}
	defer func() {
		if err := c.lock.Release(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn("update.lock_release_failed", zap.Error(err))
		}
	}()

	installed, err := c.steps.InstalledVersion(ctx)
	if err != nil {
		c.console.Error(err.Error())
		return OutcomeFailed, nil
	}

	// A failed check is reported and then treated like "nothing newer".
	rel, _ := c.latest(ctx, installed)
	if rel == nil {
		c.console.Info("No Update Available! You are already on the latest version.")
		return OutcomeNoUpdate, nil
	}
	if !rel.RequirementsMet() {
		c.console.Info("Sorry! Your system does not meet the minimum requirements for this update.")
		c.console.Info("Please retry after installing the required version/extensions.")
		return OutcomeRequirementsUnmet, nil
	}
	if !c.assumeYes && !c.console.Confirm("Do you wish to update to "+rel.Version+"?") {
		return OutcomeDeclined, nil
	}

	if !c.keepLock(ctx) {
		return OutcomeFailed, nil
	}
	res := c.download(ctx, rel.Version)
	if !res.OK || !c.keepLock(ctx) {
		return OutcomeFailed, nil
	}
	res = c.unzip(ctx, res.Path)
	if !res.OK || !c.keepLock(ctx) {
		return OutcomeFailed, nil
	}
	if res = c.copyFiles(ctx, res.Path); !res.OK || !c.keepLock(ctx) {
		return OutcomeFailed, nil
	}
	if len(rel.DeletedFiles) > 0 {
		if res = c.deleteFiles(ctx, rel.DeletedFiles); !res.OK || !c.keepLock(ctx) {
			return OutcomeFailed, nil
		}
	}
	if res = c.migrate(ctx); !res.OK || !c.keepLock(ctx) {
		return OutcomeFailed, nil
	}
	if res = c.finish(ctx, installed, rel.Version); !res.OK {
		return OutcomeFailed, nil
	}

	c.console.Info("Successfully updated to " + rel.Version)
	c.log.Info("update.completed", zap.String("from", installed), zap.String("to", rel.Version))
	return OutcomeUpdated, nil
}

// latest prints the check banner and the requirement list. A nil release
// means no update is available, whether or not the check itself failed.
func (c *UpdateCommand) latest(ctx context.Context, installed string) (*domain.Release, StepResult) {
	c.console.Info("Your currently installed version is " + installed)
	c.console.Line()
	c.console.Info("Checking for update...")

	rel, err := c.steps.CheckForUpdate(ctx, installed)
	if err != nil {
		return nil, c.fail(domain.UpdateStepCheck, err.Error())
	}
	if rel != nil {
		for _, req := range rel.Requirements {
			if req.Satisfied {
				c.console.Info("✅ " + req.Name)
			} else {
				c.console.Info("❌ " + req.Name)
			}
		}
	}
	return rel, c.pass(domain.UpdateStepCheck, "")
}

// keepLock extends the update lock before the next step. A lock that was
// lost to another run stops this one.
func (c *UpdateCommand) keepLock(ctx context.Context) bool {
	if err := c.lock.Refresh(ctx); err != nil {
		c.console.Error("Update lock lost, aborting.")
		c.log.Warn("update.lock_refresh_failed", zap.Error(err))
		return false
	}
	return true
}

func (c *UpdateCommand) download(ctx context.Context, version string) StepResult {
	c.console.Info("Downloading update...")
	path, err := c.steps.Download(ctx, version, true)
	if err != nil {
		return c.fail(domain.UpdateStepDownload, err.Error())
	}
	if path == "" {
		return c.fail(domain.UpdateStepDownload, "Download exception")
	}
	return c.pass(domain.UpdateStepDownload, path)
}

func (c *UpdateCommand) unzip(ctx context.Context, zipPath string) StepResult {
	c.console.Info("Unzipping update package...")
	path, err := c.steps.Unzip(ctx, zipPath)
	if err != nil {
		return c.fail(domain.UpdateStepUnzip, err.Error())
	}
	if path == "" {
		return c.fail(domain.UpdateStepUnzip, "Unzipping exception")
	}
	return c.pass(domain.UpdateStepUnzip, path)
}

func (c *UpdateCommand) copyFiles(ctx context.Context, dir string) StepResult {
	c.console.Info("Copying update files...")
	return c.result(domain.UpdateStepCopy, c.steps.CopyFiles(ctx, dir))
}

func (c *UpdateCommand) deleteFiles(ctx context.Context, files []string) StepResult {
	c.console.Info("Deleting unused old files...")
	return c.result(domain.UpdateStepDelete, c.steps.DeleteFiles(ctx, files))
}

func (c *UpdateCommand) migrate(ctx context.Context) StepResult {
	c.console.Info("Running Migrations...")
	return c.result(domain.UpdateStepMigrate, c.steps.Migrate(ctx))
}

func (c *UpdateCommand) finish(ctx context.Context, installed, version string) StepResult {
	c.console.Info("Finishing update...")
	return c.result(domain.UpdateStepFinish, c.steps.Finish(ctx, installed, version))
}

func (c *UpdateCommand) result(step domain.UpdateStep, err error) StepResult {
	if err != nil {
		return c.fail(step, err.Error())
	}
	return c.pass(step, "")
}

func (c *UpdateCommand) pass(step domain.UpdateStep, path string) StepResult {
	c.observe(step, true)
	return StepResult{OK: true, Path: path}
}

func (c *UpdateCommand) fail(step domain.UpdateStep, msg string) StepResult {
	c.console.Error(msg)
	c.log.Warn("update.step_failed", zap.String("step", string(step)), zap.String("error", msg))
	c.observe(step, false)
	return StepResult{Message: msg}
}

// IsLocked reports whether err came from a concurrent run holding the lock.
func IsLocked(err error) bool { return errors.Is(err, ErrUpdateInProgress) }
