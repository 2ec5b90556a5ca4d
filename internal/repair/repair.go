package repair

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/journal"
	"github.com/vtk-lookingglass/lgwheel/internal/wheel"
)

// Result describes a finished repair.
type Result struct {
	// Output is the repaired wheel in the output directory.
	Output string
	// Injected are the wheel-relative paths of the libraries copied in
	// before the tool ran.
	Injected []string
	// Removed are the wheel-relative entries pruned from the tool's output.
	Removed []string
	// Missing are original entries the tool deleted, in lexical order.
	Missing   []string
	JournalID string
}

// Repairer runs the inject, repair and rollback pipeline.
type Repairer struct {
	cfg    *config.Config
	tool   Tool
	logger config.Logger
}

// NewRepairer builds a Repairer. A nil tool selects auditwheel as
// configured in cfg.Repair.
func NewRepairer(cfg *config.Config, tool Tool, logger config.Logger) *Repairer {
	if tool == nil {
		tool = NewAuditwheel(cfg.Repair.Tool, cfg.Repair.Plat)
	}
	return &Repairer{cfg: cfg, tool: tool, logger: config.OrNop(logger)}
}

// Repair repairs the wheel at wheelPath into outputDir. The input wheel is
// never modified. Any failure aborts the run.
func (r *Repairer) Repair(ctx context.Context, wheelPath, outputDir string) (*Result, error) {
	if err := r.cfg.RequireRepair(); err != nil {
		return nil, err
	}
	if loc, ok := r.tool.(Locator); ok {
		if _, err := loc.Locate(); err != nil {
			return nil, &config.Error{
				Field:  "repair.tool",
				Reason: fmt.Sprintf("%q is not runnable: %v", r.cfg.Repair.Tool, err),
			}
		}
	}

	libs, err := FindLibraries(r.cfg.SDK.InstallPath, r.cfg.SDK.LibraryGlob)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("found libraries", "count", len(libs), "root", r.cfg.SDK.InstallPath)

	lock, err := journal.AcquireLock(ctx, outputDir)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("locked output directory", "lock", lock.Path())
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release lock", "error", err)
		}
	}()

	rec := journal.New(wheelPath, outputDir)
	res, err := r.run(ctx, rec, libs, wheelPath, outputDir)
	if err != nil {
		rec.LastError = err.Error()
	}
	if saveErr := rec.Save(r.cfg.StateDir); saveErr != nil {
		r.logger.Warn("failed to save journal", "error", saveErr)
	}
	if err != nil {
		return nil, err
	}

	res.JournalID = rec.ID
	return res, nil
}

func (r *Repairer) run(ctx context.Context, rec *journal.Record, libs []string, wheelPath, outputDir string) (*Result, error) {
	stageDir, err := os.MkdirTemp("", "lgwheel-stage-")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	staged := filepath.Join(stageDir, filepath.Base(wheelPath))
	if err := copyFile(wheelPath, staged); err != nil {
		return nil, fmt.Errorf("stage %s: %w", wheelPath, err)
	}

	var (
		baseline wheel.Snapshot
		manifest *wheel.Manifest
		injected []string
	)

	rec.Mark(journal.StageInject, journal.StateInProgress, nil)
	err = wheel.Update(staged, func(tx *wheel.Transaction) error {
		var err error
		baseline, err = wheel.Take(tx.Dir())
		if err != nil {
			return err
		}
		r.logger.Debug("staged wheel", "archive", tx.Path(), "entries", baseline.Len())

		manifest, err = wheel.ReadManifest(tx.Dir())
		if err != nil {
			return joinDiscard(err, tx)
		}

		dest := filepath.Join(tx.Dir(), filepath.FromSlash(r.cfg.Repair.LibraryDir))
		written, err := Inject(libs, dest, r.logger)
		for _, p := range written {
			rel, relErr := filepath.Rel(tx.Dir(), p)
			if relErr == nil {
				injected = append(injected, filepath.ToSlash(rel))
			}
		}
		return err
	})
	rec.Injected = append(rec.Injected, injected...)
	if err != nil {
		rec.Mark(journal.StageInject, journal.StateFailed, err)
		return nil, err
	}
	rec.Mark(journal.StageInject, journal.StateCompleted, nil)
	r.logger.Info("injected libraries", "wheel", filepath.Base(wheelPath), "count", len(injected))

	rec.Mark(journal.StageRepair, journal.StateInProgress, nil)
	output, err := r.tool.Repair(ctx, staged, outputDir)
	if err != nil {
		rec.Mark(journal.StageRepair, journal.StateFailed, err)
		return nil, err
	}
	rec.Output = output
	rec.Mark(journal.StageRepair, journal.StateCompleted, nil)
	r.logger.Info("repair tool finished", "output", output)

	var removed, missing []string
	rec.Mark(journal.StageRestore, journal.StateInProgress, nil)
	err = wheel.Update(output, func(tx *wheel.Transaction) error {
		after, err := wheel.Take(tx.Dir())
		if err != nil {
			return err
		}

		removed = wheel.Diff(after, baseline)
		if err := wheel.Prune(tx.Dir(), removed); err != nil {
			return err
		}
		for _, p := range removed {
			r.logger.Debug("pruned", "entry", p)
		}

		if err := manifest.Restore(tx.Dir()); err != nil {
			return err
		}

		// Entries the tool deleted cannot be recovered, only reported.
		final, err := wheel.Take(tx.Dir())
		if err != nil {
			return err
		}
		if final.Len() != baseline.Len() {
			for _, p := range baseline.Paths() {
				if !final.Has(p) {
					missing = append(missing, p)
				}
			}
		}
		return nil
	})
	rec.Removed = append(rec.Removed, removed...)
	if err != nil {
		rec.Mark(journal.StageRestore, journal.StateFailed, err)
		return nil, err
	}
	rec.Mark(journal.StageRestore, journal.StateCompleted, nil)
	if len(missing) > 0 {
		r.logger.Warn("repair tool dropped entries from the wheel", "output", output, "entries", missing)
	}
	r.logger.Info("restored original contents", "output", output, "removed", len(removed))

	return &Result{
		Output:   output,
		Injected: injected,
		Removed:  removed,
		Missing:  missing,
	}, nil
}

// joinDiscard drops the transaction so the archive is not repacked and
// returns err with any discard failure attached.
func joinDiscard(err error, tx *wheel.Transaction) error {
	if dErr := tx.Discard(); dErr != nil {
		return fmt.Errorf("%w (discard: %v)", err, dErr)
	}
	return err
}
