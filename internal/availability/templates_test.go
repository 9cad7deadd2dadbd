package availability

import (
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTemplateProperties(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 3; i++ {
		_, err := m.AddSlot(def("2025-08-12", formatClock(600+i*30), formatClock(630+i*30)))
		require.NoError(t, err)
	}
	existing := map[string]bool{}
	for _, s := range m.Slots() {
		existing[s.ID] = true
	}

	tpl, ok := FindTemplate(DefaultTemplates(), "Standard Day")
	require.True(t, ok)
	snapshot := DefaultTemplates()[0]

	target := time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)
	added, err := m.ApplyTemplate(tpl, target)
	require.NoError(t, err)

	require.Len(t, added, len(tpl.TimeSlots))
	seen := map[string]bool{}
	for i, s := range added {
		assert.Equal(t, "2025-08-12", s.Date)
		assert.NotEmpty(t, s.ID)
		assert.False(t, existing[s.ID], "id %s reused", s.ID)
		assert.False(t, seen[s.ID], "id %s duplicated", s.ID)
		seen[s.ID] = true

		// order and fields preserved
		assert.Equal(t, tpl.TimeSlots[i].StartTime, s.StartTime)
		assert.Equal(t, tpl.TimeSlots[i].Status, s.Status)
		assert.Equal(t, tpl.TimeSlots[i].AppointmentType, s.AppointmentType)
		assert.Equal(t, tpl.TimeSlots[i].Notes, s.Notes)
	}

	assert.Len(t, m.Slots(), 3+len(tpl.TimeSlots))
	assert.Equal(t, snapshot, tpl, "template is not mutated")
	for _, d := range tpl.TimeSlots {
		assert.Empty(t, d.Date)
	}
}

func TestApplyTemplatePure(t *testing.T) {
	tpl, ok := FindTemplate(DefaultTemplates(), "half-day")
	require.True(t, ok)

	slots, err := ApplyTemplate(tpl, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), sequentialIDs())
	require.NoError(t, err)
	assert.Len(t, slots, 6)
	assert.Equal(t, "id-1", slots[0].ID)
	assert.Equal(t, "2025-09-01", slots[5].Date)
	assert.Equal(t, 30, slots[5].Duration)
}

func TestApplyTemplateRejectsOverlapWhenEnabled(t *testing.T) {
	m := newTestModel(WithConflictPolicy(RejectOverlaps))
	_, err := m.AddSlot(def("2025-08-12", "09:00", "09:30"))
	require.NoError(t, err)

	tpl, _ := DefaultTemplate(DefaultTemplates())
	_, err = m.ApplyTemplate(tpl, time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeConflict))
	assert.Len(t, m.Slots(), 1, "nothing added on conflict")

	_, err = m.ApplyTemplate(tpl, time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultTemplates()
	require.NoError(t, ValidateCatalog(catalog))

	tpl, ok := DefaultTemplate(catalog)
	require.True(t, ok)
	assert.Equal(t, "Standard Day", tpl.Name)

	catalog[1].IsDefault = true
	err := ValidateCatalog(catalog)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	// the catalog handed out earlier does not leak into later calls
	_, ok = DefaultTemplate(DefaultTemplates())
	assert.True(t, ok)
	assert.NoError(t, ValidateCatalog(DefaultTemplates()))
}

func TestValidateCatalogRejectsBadSlot(t *testing.T) {
	catalog := []types.AvailabilityTemplate{{
		Name:      "Broken",
		TimeSlots: []types.SlotDefinition{{StartTime: "10:00", EndTime: "09:00"}},
	}}
	assert.Error(t, ValidateCatalog(catalog))
}
