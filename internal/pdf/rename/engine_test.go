package rename

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsekete/vpars3/internal/pdf/access"
)

// fakeStore is shared form state surviving across open calls, standing in
// for the document on disk.
type fakeStore struct {
	order     []string
	props     map[string]access.PropertySnapshot
	commitErr error
	renameErr map[string]error
	commits   int
}

func newFakeStore(fields ...string) *fakeStore {
	store := &fakeStore{props: make(map[string]access.PropertySnapshot)}
	for _, name := range fields {
		store.order = append(store.order, name)
		store.props[name] = access.PropertySnapshot{}
	}
	return store
}

func (s *fakeStore) setProps(field string, props access.PropertySnapshot) {
	s.props[field] = props
}

func (s *fakeStore) opener() OpenFunc {
	return func(string) (access.FormAccess, error) {
		return &fakeAccess{store: s}, nil
	}
}

type fakeAccess struct {
	store  *fakeStore
	closed bool
}

func (f *fakeAccess) FieldNames() ([]string, error) {
	return append([]string(nil), f.store.order...), nil
}

func (f *fakeAccess) HasField(field string) bool {
	_, ok := f.store.props[field]
	return ok
}

func (f *fakeAccess) ReadProperty(field string, key access.PropertyKey) (interface{}, bool, error) {
	props, ok := f.store.props[field]
	if !ok {
		return nil, false, &access.AccessError{Op: "read", Field: field, Err: access.ErrFieldNotFound}
	}
	value, present := props[key]
	return value, present, nil
}

func (f *fakeAccess) WriteProperty(field string, key access.PropertyKey, value interface{}) error {
	props, ok := f.store.props[field]
	if !ok {
		return &access.AccessError{Op: "write", Field: field, Err: access.ErrFieldNotFound}
	}
	props[key] = value
	return nil
}

func (f *fakeAccess) RenameField(oldName, newName string) error {
	if err := f.store.renameErr[oldName]; err != nil {
		return err
	}
	props, ok := f.store.props[oldName]
	if !ok {
		return &access.AccessError{Op: "rename", Field: oldName, Err: access.ErrFieldNotFound}
	}
	if _, exists := f.store.props[newName]; exists {
		return &access.AccessError{Op: "rename", Field: newName, Err: access.ErrFieldExists}
	}
	delete(f.store.props, oldName)
	f.store.props[newName] = props
	for i, name := range f.store.order {
		if name == oldName {
			f.store.order[i] = newName
		}
	}
	return nil
}

func (f *fakeAccess) Commit() error {
	f.store.commits++
	return f.store.commitErr
}

func (f *fakeAccess) Close() error {
	f.closed = true
	return nil
}

func TestRenameRoundTripPreservesProperties(t *testing.T) {
	store := newFakeStore("firstName")
	store.setProps("firstName", access.PropertySnapshot{
		access.PropRequired:  false,
		access.PropMaxLength: 40,
	})
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath:       "form.pdf",
		Mapping:          Mapping{{Old: "firstName", New: "owner-information_first-name"}},
		ValidateMappings: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Modifications, 1)
	assert.Equal(t, "firstName", result.Modifications[0].Old)
	assert.Equal(t, "owner-information_first-name", result.Modifications[0].New)
	assert.GreaterOrEqual(t, result.Modifications[0].PreservedPropertyCount, 2)

	assert.NotContains(t, store.props, "firstName")
	require.Contains(t, store.props, "owner-information_first-name")
	props := store.props["owner-information_first-name"]
	assert.Equal(t, false, props[access.PropRequired])
	assert.Equal(t, 40, props[access.PropMaxLength])
	assert.Equal(t, 1, store.commits)
}

func TestRenameMissingFieldAbortsBeforeMutation(t *testing.T) {
	store := newFakeStore("present_field")
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath:       "form.pdf",
		Mapping:          Mapping{{Old: "missing_field", New: "owner-information_x"}},
		ValidateMappings: true,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Modifications)
	assert.Contains(t, store.props, "present_field")
}

func TestRenameValidationCollectsAllViolations(t *testing.T) {
	store := newFakeStore("a", "b")
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath: "form.pdf",
		Mapping: Mapping{
			{Old: "missing", New: "Bad_Name"},
			{Old: "a", New: "owner_block"},
			{Old: "b", New: "owner_block"},
		},
		ValidateMappings: true,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 3, "missing key, invalid grammar, duplicate target")
	assert.Empty(t, result.Modifications)
}

func TestRenamePartialIsolation(t *testing.T) {
	store := newFakeStore("valid_field")
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath: "form.pdf",
		Mapping: Mapping{
			{Old: "no_such_field", New: "owner-information_a"},
			{Old: "valid_field", New: "owner-information_b"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)
	require.Len(t, result.Modifications, 1)
	assert.Equal(t, "valid_field", result.Modifications[0].Old)
	assert.Contains(t, store.props, "owner-information_b")
}

func TestRenameEndToEnd(t *testing.T) {
	store := newFakeStore("FIRST_NAME", "ADDR_SAME", "CHANGE_DIVIDEND_OPTION")
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath: "form.pdf",
		Mapping: Mapping{
			{Old: "FIRST_NAME", New: "owner-information_first-name"},
			{Old: "ADDR_SAME", New: "owner-information_address-same"},
		},
		ValidateMappings: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Len(t, result.Modifications, 2)
	assert.Equal(t, 3, result.FieldCountBefore)
	assert.Equal(t, result.FieldCountBefore, result.FieldCountAfter)
	assert.Contains(t, store.props, "CHANGE_DIVIDEND_OPTION")
	assert.NotContains(t, store.props, "FIRST_NAME")
	assert.NotContains(t, store.props, "ADDR_SAME")
}

func TestRenameCommitFailureIsWarning(t *testing.T) {
	store := newFakeStore("field_a")
	store.commitErr = errors.New("flush failed")
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath: "form.pdf",
		Mapping:    Mapping{{Old: "field_a", New: "owner_element"}},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "commit failed")
}

func TestRenameFieldFailureIsIsolated(t *testing.T) {
	store := newFakeStore("alpha_field", "beta_field")
	store.renameErr = map[string]error{"alpha_field": errors.New("write blocked")}
	engine := NewEngine(store.opener())

	result, err := engine.Rename(context.Background(), Request{
		SourcePath: "form.pdf",
		Mapping: Mapping{
			{Old: "alpha_field", New: "owner_alpha"},
			{Old: "beta_field", New: "owner_beta"},
		},
		ValidateMappings: true,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)
	require.Len(t, result.Modifications, 1)
	assert.Equal(t, "beta_field", result.Modifications[0].Old)
	assert.Contains(t, store.props, "alpha_field")
}

func TestRenameCancelledContextStopsBetweenFields(t *testing.T) {
	store := newFakeStore("one_field", "two_field")
	engine := NewEngine(store.opener())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.Rename(ctx, Request{
		SourcePath: "form.pdf",
		Mapping: Mapping{
			{Old: "one_field", New: "owner_one"},
			{Old: "two_field", New: "owner_two"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Modifications)
	assert.Contains(t, store.props, "one_field")
	assert.Contains(t, store.props, "two_field")
}

func TestRenameEmptyMappingIsAnError(t *testing.T) {
	engine := NewEngine(newFakeStore().opener())
	_, err := engine.Rename(context.Background(), Request{SourcePath: "form.pdf"})
	assert.Error(t, err)
}

func TestMappingFromMapIsSorted(t *testing.T) {
	mapping := MappingFromMap(map[string]string{
		"zeta":  "owner_z",
		"alpha": "owner_a",
	})
	require.Len(t, mapping, 2)
	assert.Equal(t, "alpha", mapping[0].Old)
	assert.Equal(t, "zeta", mapping[1].Old)
}

func TestRenameStagesUnderPathLock(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(source, []byte("%PDF-1.4 stub"), 0o644))
	output := filepath.Join(dir, "form_renamed.pdf")

	store := newFakeStore("a_field")
	engine := NewEngine(store.opener())

	// Hold the output path's lock; the batch must not copy the source until
	// the lock is released.
	lock := engine.pathLock(output)
	lock.Lock()

	done := make(chan *Result, 1)
	go func() {
		result, _ := engine.Rename(context.Background(), Request{
			SourcePath:       source,
			OutputPath:       output,
			Mapping:          Mapping{{Old: "a_field", New: "owner-information_first-name"}},
			PreserveOriginal: true,
		})
		done <- result
	}()

	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("work file was staged before the path lock was available")
	}

	lock.Unlock()
	result := <-done
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.FileExists(t, output)
}

func TestDerivedOutputPath(t *testing.T) {
	assert.Equal(t, "/tmp/form_renamed.pdf", derivedOutputPath("/tmp/form.pdf", "_renamed"))
	assert.Equal(t, "form_renamed", derivedOutputPath("form", "_renamed"))
}
