package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func companySnapshot(src models.Source, attrs attr.Map) models.Snapshot {
	return models.Snapshot{
		EntityType: models.EntityCompany,
		EntityID:   "acme",
		Source:     src,
		Attributes: attrs,
		ObservedAt: fixedNow,
	}
}

func TestStoreSnapshot_FirstObservationHasNoDelta(t *testing.T) {
	ledger := NewLedger()

	delta, ok := ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Tech")}))
	assert.False(t, ok)
	assert.Nil(t, delta)

	stored, found := ledger.Snapshot(models.EntityCompany, "acme", models.SourceA)
	require.True(t, found)
	assert.True(t, stored.Attributes.Get("industry").Equal(attr.String("Tech")))
}

func TestStoreSnapshot_SingleFieldChange(t *testing.T) {
	ledger := NewLedger().WithClock(func() time.Time { return fixedNow })
	ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{
		"industry":      attr.String("Tech"),
		"employeeCount": attr.Number(500),
	}))

	delta, ok := ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{
		"industry":      attr.String("Tech"),
		"employeeCount": attr.Number(650),
	}))
	require.True(t, ok)
	require.Len(t, delta.Changes, 1)

	change := delta.Changes[0]
	assert.Equal(t, "employeeCount", change.Field)
	assert.True(t, change.OldValue.Equal(attr.Number(500)))
	assert.True(t, change.NewValue.Equal(attr.Number(650)))
	assert.Equal(t, models.SourceA, delta.Source)
	assert.Equal(t, fixedNow, delta.ComputedAt)
}

func TestStoreSnapshot_PresenceTransitionsAndOrder(t *testing.T) {
	ledger := NewLedger()
	ledger.StoreSnapshot(companySnapshot(models.SourceB, attr.Map{
		"country":      attr.String("United States"),
		"technologies": attr.List(attr.String("go")),
		"phone":        attr.Absent(),
	}))

	delta, ok := ledger.StoreSnapshot(companySnapshot(models.SourceB, attr.Map{
		"technologies": attr.List(attr.String("go"), attr.String("k8s")),
		"domain":       attr.String("acme.com"),
	}))
	require.True(t, ok)

	// phone: absent -> missing is not a change
	assert.Equal(t, []string{"domain", "country", "technologies"}, delta.ChangedFields())
	assert.True(t, delta.Changes[0].OldValue.IsAbsent())
	assert.True(t, delta.Changes[1].NewValue.IsAbsent())
}

func TestStoreSnapshot_UntrackedFieldsIgnored(t *testing.T) {
	ledger := NewLedger()
	ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{"logoUrl": attr.String("a.png")}))

	delta, ok := ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{"logoUrl": attr.String("b.png")}))
	assert.False(t, ok)
	assert.Nil(t, delta)

	stored, _ := ledger.Snapshot(models.EntityCompany, "acme", models.SourceA)
	assert.True(t, stored.Attributes.Get("logoUrl").Equal(attr.String("b.png")), "snapshot is replaced unconditionally")
}

func TestStoreSnapshot_KeysAreIndependent(t *testing.T) {
	ledger := NewLedger()
	ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Tech")}))

	_, ok := ledger.StoreSnapshot(companySnapshot(models.SourceB, attr.Map{"industry": attr.String("Retail")}))
	assert.False(t, ok, "first observation from another source")

	contact := companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Retail")})
	contact.EntityType = models.EntityContact
	_, ok = ledger.StoreSnapshot(contact)
	assert.False(t, ok, "first observation for another entity type")

	assert.Equal(t, 3, ledger.Len())
}

func TestStoreSnapshot_CallerMapIsCopied(t *testing.T) {
	ledger := NewLedger()
	attrs := attr.Map{"industry": attr.String("Tech")}
	ledger.StoreSnapshot(companySnapshot(models.SourceA, attrs))

	attrs["industry"] = attr.String("Mutated")

	stored, _ := ledger.Snapshot(models.EntityCompany, "acme", models.SourceA)
	assert.True(t, stored.Attributes.Get("industry").Equal(attr.String("Tech")))
}

func TestProcessBatch(t *testing.T) {
	ledger := NewLedger()
	batch := []models.Snapshot{
		companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Tech")}),
		companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Software")}),
		companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Software")}),
		companySnapshot(models.SourceA, attr.Map{"industry": attr.String("SaaS"), "city": attr.String("Austin")}),
	}

	deltas := ledger.ProcessBatch(batch)
	require.Len(t, deltas, 2)
	assert.Equal(t, []string{"industry"}, deltas[0].ChangedFields())
	assert.Equal(t, []string{"industry", "city"}, deltas[1].ChangedFields())
}

func TestSnapshots_SourceOrderAndReset(t *testing.T) {
	ledger := NewLedger()
	ledger.StoreSnapshot(companySnapshot(models.SourceB, attr.Map{}))
	ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{}))

	snaps := ledger.Snapshots(models.EntityCompany, "acme")
	require.Len(t, snaps, 2)
	assert.Equal(t, models.SourceA, snaps[0].Source)
	assert.Equal(t, models.SourceB, snaps[1].Source)

	ledger.Reset()
	assert.Empty(t, ledger.Snapshots(models.EntityCompany, "acme"))
	_, ok := ledger.StoreSnapshot(companySnapshot(models.SourceA, attr.Map{"industry": attr.String("x")}))
	assert.False(t, ok, "reset forgets previous snapshots")
}
