package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// hierAccess builds a field index the way Open would for a document with one
// hierarchical family, one literal-dot top-level field and one plain field.
func hierAccess() *pdfcpuAccess {
	return &pdfcpuAccess{
		fields: map[string]types.Dict{
			"owner":            {},
			"owner.first":      {},
			"owner.first.home": {},
			"OWNER.LITERAL":    {},
			"plain":            {},
		},
		order: []string{"owner", "owner.first", "owner.first.home", "OWNER.LITERAL", "plain"},
		parents: map[string]string{
			"owner.first":      "owner",
			"owner.first.home": "owner.first",
		},
		objNrs:    map[string]int{},
		annotPage: map[int]int{},
	}
}

func TestRenameFieldRekeysDescendants(t *testing.T) {
	fa := hierAccess()

	require.NoError(t, fa.RenameField("owner", "policy-owner"))

	assert.Equal(t, types.StringLiteral("policy-owner"), fa.fields["policy-owner"]["T"],
		"top-level rename writes the new partial name")
	_, kidTWritten := fa.fields["policy-owner.first"]["T"]
	assert.False(t, kidTWritten, "descendant T entries stay untouched")

	assert.True(t, fa.HasField("policy-owner.first"))
	assert.True(t, fa.HasField("policy-owner.first.home"))
	assert.False(t, fa.HasField("owner"))
	assert.False(t, fa.HasField("owner.first"))
	assert.False(t, fa.HasField("owner.first.home"))

	names, err := fa.FieldNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"policy-owner", "policy-owner.first", "policy-owner.first.home", "OWNER.LITERAL", "plain"}, names)

	assert.Equal(t, "policy-owner", fa.parents["policy-owner.first"])
	assert.Equal(t, "policy-owner.first", fa.parents["policy-owner.first.home"])
}

func TestRenameFieldRejectsKid(t *testing.T) {
	fa := hierAccess()

	err := fa.RenameField("owner.first", "owner-information_first-name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKidFieldRename))

	assert.True(t, fa.HasField("owner.first"))
	_, tWritten := fa.fields["owner.first"]["T"]
	assert.False(t, tWritten, "rejected rename must not mutate the dictionary")
}

func TestRenameFieldLiteralDotNameIsNotHierarchical(t *testing.T) {
	fa := hierAccess()

	// No parents entry, so the dot is part of the partial name and the field
	// renames like any other top-level field.
	require.NoError(t, fa.RenameField("OWNER.LITERAL", "owner-information_last-name"))
	assert.True(t, fa.HasField("owner-information_last-name"))
	assert.Equal(t, types.StringLiteral("owner-information_last-name"), fa.fields["owner-information_last-name"]["T"])
}

func TestRenameFieldRejectsDottedTarget(t *testing.T) {
	fa := hierAccess()

	err := fa.RenameField("plain", "a.b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period")
	assert.True(t, fa.HasField("plain"))
}

func TestRenameFieldDescendantCollision(t *testing.T) {
	fa := hierAccess()
	// A literal-dot top-level field already occupies the qualified name the
	// kid would be rekeyed to.
	fa.fields["taken.first"] = types.Dict{}
	fa.order = append(fa.order, "taken.first")

	err := fa.RenameField("owner", "taken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldExists))
	assert.True(t, fa.HasField("owner"), "failed rename must leave the index unchanged")
	assert.True(t, fa.HasField("owner.first"))
}

func TestReadPropertyPageFromAnnotationIndex(t *testing.T) {
	fa := &pdfcpuAccess{
		fields:    map[string]types.Dict{"sig": {}},
		order:     []string{"sig"},
		parents:   map[string]string{},
		objNrs:    map[string]int{"sig": 7},
		annotPage: map[int]int{7: 3},
	}

	value, ok, err := fa.ReadProperty("sig", PropPage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestReadPropertyPageUnresolvable(t *testing.T) {
	fa := &pdfcpuAccess{
		fields:    map[string]types.Dict{"bare": {}},
		order:     []string{"bare"},
		parents:   map[string]string{},
		objNrs:    map[string]int{},
		annotPage: map[int]int{},
	}

	_, ok, err := fa.ReadProperty("bare", PropPage)
	require.NoError(t, err)
	assert.False(t, ok, "no annotation mapping and no geometry means no page")
}
