package rename

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wsekete/vpars3/internal/pdf/access"
	"github.com/wsekete/vpars3/internal/pdf/reconcile"
)

// OpenFunc opens the form access layer for a document path.
type OpenFunc func(path string) (access.FormAccess, error)

// Request describes one rename batch.
type Request struct {
	SourcePath string
	OutputPath string
	Mapping    Mapping

	// AccessibleFields limits which fields may be renamed. Nil means every
	// field present in the document counts as accessible.
	AccessibleFields []string

	ValidateMappings bool
	PreserveOriginal bool
	CreateBackup     bool
}

// Engine applies rename batches. Batches targeting the same document path
// are serialized; mutation within a batch is strictly sequential because the
// document is a single mutable resource.
type Engine struct {
	open         OpenFunc
	outputSuffix string
	debugMode    bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine builds an engine over the given access layer opener.
func NewEngine(open OpenFunc) *Engine {
	return &Engine{
		open:         open,
		outputSuffix: "_renamed",
		locks:        make(map[string]*sync.Mutex),
	}
}

// SetOutputSuffix overrides the suffix used when deriving an output path.
func (e *Engine) SetOutputSuffix(suffix string) {
	if suffix != "" {
		e.outputSuffix = suffix
	}
}

// SetDebugMode toggles stage tracing to stdout.
func (e *Engine) SetDebugMode(debug bool) {
	e.debugMode = debug
}

func (e *Engine) pathLock(path string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[path] = lock
	}
	return lock
}

func (e *Engine) trace(stage Stage, format string, args ...interface{}) {
	if e.debugMode {
		fmt.Printf("[DEBUG] rename %s: %s\n", stage, fmt.Sprintf(format, args...))
	}
}

// Rename runs one batch through validate, mutate, commit and verify. All
// expected failures land in the result; only an unusable request returns an
// error. Cancellation is honored between fields, never mid-field.
func (e *Engine) Rename(ctx context.Context, req Request) (*Result, error) {
	if len(req.Mapping) == 0 {
		return nil, fmt.Errorf("rename mapping is empty")
	}

	workPath := e.workPath(req)
	result := &Result{
		OriginalRef: req.SourcePath,
		ModifiedRef: workPath,
		Timestamp:   time.Now(),
	}

	// The lock must cover staging: a concurrent batch against the same work
	// path would otherwise overwrite the copy mid-mutation.
	lock := e.pathLock(workPath)
	lock.Lock()
	defer lock.Unlock()

	if err := e.stageWorkFile(req, workPath); err != nil {
		e.trace(StageFatal, "staging failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to stage document: %v", err))
		return result, nil
	}

	fa, err := e.open(workPath)
	if err != nil {
		e.trace(StageFatal, "open failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to open document: %v", err))
		return result, nil
	}
	defer fa.Close()

	existing, err := fa.FieldNames()
	if err != nil {
		e.trace(StageFatal, "field enumeration failed: %v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("failed to enumerate fields: %v", err))
		return result, nil
	}
	result.FieldCountBefore = len(existing)
	result.FieldCountAfter = len(existing)

	e.trace(StageValidating, "%d mapping entries against %d fields", len(req.Mapping), len(existing))
	if req.ValidateMappings {
		if violations := validateMapping(req.Mapping, existing, req.AccessibleFields); len(violations) > 0 {
			e.trace(StageAborted, "%d validation errors", len(violations))
			result.Errors = violations
			return result, nil
		}
	}

	e.trace(StageMutating, "applying %d renames", len(req.Mapping))
	for _, entry := range req.Mapping {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("rename cancelled before %q: %v", entry.Old, err))
			break
		}
		modification, err := e.renameField(fa, entry)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Modifications = append(result.Modifications, *modification)
	}

	e.trace(StageCommitting, "flushing %s", workPath)
	if err := fa.Commit(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("commit failed: %v", err))
	}

	e.verify(result, workPath)

	result.Success = len(result.Errors) == 0
	if result.Success {
		e.trace(StageDone, "%d fields renamed", len(result.Modifications))
	}
	return result, nil
}

// workPath resolves which file a batch will mutate, without touching disk.
// In-place batches return the source path, so the source lock doubles as the
// backup lock.
func (e *Engine) workPath(req Request) string {
	if !req.PreserveOriginal {
		return req.SourcePath
	}
	if req.OutputPath != "" {
		return req.OutputPath
	}
	return derivedOutputPath(req.SourcePath, e.outputSuffix)
}

// stageWorkFile prepares the work file inside the path's critical section: a
// duplicate of the source when the original must be preserved, otherwise an
// optional timestamped backup before mutating in place.
func (e *Engine) stageWorkFile(req Request, workPath string) error {
	if req.PreserveOriginal {
		return copyFile(req.SourcePath, workPath)
	}
	if req.CreateBackup {
		backup := fmt.Sprintf("%s.bak-%s", req.SourcePath, time.Now().Format("20060102-150405"))
		return copyFile(req.SourcePath, backup)
	}
	return nil
}

func derivedOutputPath(source, suffix string) string {
	if idx := strings.LastIndex(source, "."); idx > strings.LastIndexByte(source, '/') {
		return source[:idx] + suffix + source[idx:]
	}
	return source + suffix
}

func validateMapping(mapping Mapping, existing, accessible []string) []string {
	var violations []string

	allowed := make(map[string]bool)
	if accessible == nil {
		for _, name := range existing {
			allowed[name] = true
		}
	} else {
		for _, name := range accessible {
			allowed[name] = true
		}
	}

	seen := make(map[string]string)
	for _, entry := range mapping {
		if !allowed[entry.Old] {
			violations = append(violations, fmt.Sprintf("field %q is not accessible for renaming", entry.Old))
		}
		if prior, dup := seen[entry.New]; dup {
			violations = append(violations, fmt.Sprintf("target name %q assigned to both %q and %q", entry.New, prior, entry.Old))
		} else {
			seen[entry.New] = entry.Old
		}
		if err := ValidateName(entry.New); err != nil {
			violations = append(violations, err.Error())
		}
	}
	return violations
}

// renameField applies one mapping entry: snapshot, rename, resolve check,
// best-effort property restore. Failures stay scoped to this field.
func (e *Engine) renameField(fa access.FormAccess, entry FieldMapping) (*Modification, error) {
	snapshot, err := access.SnapshotProperties(fa, entry.Old)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %q: %v", entry.Old, err)
	}

	if err := fa.RenameField(entry.Old, entry.New); err != nil {
		return nil, fmt.Errorf("failed to rename %q to %q: %v", entry.Old, entry.New, err)
	}
	if !fa.HasField(entry.New) {
		return nil, fmt.Errorf("renamed field %q does not resolve", entry.New)
	}

	preserved := access.RestoreProperties(fa, entry.New, snapshot)

	page := 0
	if value, ok := snapshot[access.PropPage]; ok {
		if p, ok := value.(int); ok {
			page = p
		}
	}
	return &Modification{
		Old:                    entry.Old,
		New:                    entry.New,
		Type:                   string(reconcile.ClassifyType(entry.New)),
		Page:                   page,
		PreservedPropertyCount: preserved,
	}, nil
}

// verify reopens the produced document and records the final field count.
func (e *Engine) verify(result *Result, workPath string) {
	e.trace(StageVerifying, "reopening %s", workPath)
	fa, err := e.open(workPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("verification reopen failed: %v", err))
		return
	}
	defer fa.Close()

	names, err := fa.FieldNames()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("verification enumeration failed: %v", err))
		return
	}
	result.FieldCountAfter = len(names)
	if result.FieldCountAfter != result.FieldCountBefore {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("field count changed from %d to %d", result.FieldCountBefore, result.FieldCountAfter))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
