package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

func TestSectionLabel(t *testing.T) {
	label, ok := SectionLabel("DSCI 100 101 2024W1")
	assert.True(t, ok)
	assert.Equal(t, "101", label)

	label, ok = SectionLabel("STAT 201  L1A")
	assert.True(t, ok)
	assert.Equal(t, "L1A", label)

	_, ok = SectionLabel("Lab section")
	assert.False(t, ok)
}

func TestResolveSections(t *testing.T) {
	records := []models.EnrollmentRecord{
		{UserID: 1, SectionID: 10},
		{UserID: 2, SectionID: 20},
		{UserID: 3, SectionID: 30},
		{UserID: 4, SectionID: 20},
	}
	sections := []models.Section{
		{ID: 10, Name: "DSCI 100 101 2024W1"},
		{ID: 20, Name: "Sandbox"},
	}

	resolved, unresolved := ResolveSections(records, sections)
	require.Len(t, resolved, 4)
	assert.Equal(t, "101", resolved[0].Section)
	assert.Empty(t, resolved[1].Section)
	assert.Empty(t, resolved[2].Section)
	assert.Empty(t, records[0].Section, "input records are not modified")

	require.Len(t, unresolved, 2)
	assert.Equal(t, UnresolvedSection{SectionID: 20, Name: "Sandbox", Rows: 2}, unresolved[0])
	assert.Equal(t, UnresolvedSection{SectionID: 30, Rows: 1}, unresolved[1])
}

func TestSelectSection(t *testing.T) {
	records := []models.EnrollmentRecord{{UserID: 1, Section: "101"}, {UserID: 2, Section: "102"}}
	assert.Len(t, SelectSection(records, ""), 2)

	selected := SelectSection(records, "102")
	require.Len(t, selected, 1)
	assert.Equal(t, 2, selected[0].UserID)
}
