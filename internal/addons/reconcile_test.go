package addons

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_FreshDiscovery(t *testing.T) {
	next, dropped := Reconcile(nil, []string{"workshop_111.vpk", "workshop_222.vpk"})

	assert.Empty(t, dropped)
	assert.Equal(t, []Entry{
		{Name: "workshop_111.vpk", Order: 0, Enabled: false, AddonID: "addon1"},
		{Name: "workshop_222.vpk", Order: 1, Enabled: false, AddonID: "addon2"},
	}, next)
}

func TestReconcile_KeepsSurvivorsAndAppendsNew(t *testing.T) {
	prev := []Entry{
		{Name: "b.vpk", Order: 7, Enabled: true, AddonID: "addon2"},
		{Name: "gone.vpk", Order: 3, Enabled: true, AddonID: "addon1"},
		{Name: "a.vpk", Order: 4, Enabled: false, AddonID: "addon5"},
	}

	next, dropped := Reconcile(prev, []string{"a.vpk", "c.vpk", "b.vpk", "d.vpk"})

	assert.Equal(t, []Entry{{Name: "gone.vpk", Order: 3, Enabled: true, AddonID: "addon1"}}, dropped)
	assert.Equal(t, []Entry{
		{Name: "b.vpk", Order: 7, Enabled: true, AddonID: "addon2"},
		{Name: "a.vpk", Order: 4, Enabled: false, AddonID: "addon5"},
		{Name: "c.vpk", Order: 8, Enabled: false, AddonID: "addon1"},
		{Name: "d.vpk", Order: 9, Enabled: false, AddonID: "addon3"},
	}, next)
}

func TestReconcile_SkipsReservedIDs(t *testing.T) {
	prev := []Entry{{Name: "b.vpk", Order: 0, AddonID: "addon2"}}

	next, _ := Reconcile(prev, []string{"b.vpk", "c.vpk", "d.vpk"}, "addon1", "addon3")

	assert.Equal(t, []Entry{
		{Name: "b.vpk", Order: 0, AddonID: "addon2"},
		{Name: "c.vpk", Order: 1, AddonID: "addon4"},
		{Name: "d.vpk", Order: 2, AddonID: "addon5"},
	}, next)
}

func TestReconcile_DuplicatesInInput(t *testing.T) {
	prev := []Entry{
		{Name: "a.vpk", Order: 0, AddonID: "addon1"},
		{Name: "a.vpk", Order: 1, Enabled: true, AddonID: "addon2"},
	}

	next, dropped := Reconcile(prev, []string{"a.vpk", "b.vpk", "b.vpk"})

	require.Len(t, dropped, 1)
	assert.Equal(t, "addon2", dropped[0].AddonID)
	assert.Equal(t, []string{"a.vpk", "b.vpk"}, names(next))
}

func TestReconcile_EmptyDiscoveryDropsAll(t *testing.T) {
	prev := []Entry{{Name: "a.vpk", AddonID: "addon1"}}

	next, dropped := Reconcile(prev, nil)

	assert.Empty(t, next)
	assert.Len(t, dropped, 1)
}

func randomScenario(r *rand.Rand) ([]Entry, []string) {
	pool := make([]string, 12)
	for i := range pool {
		pool[i] = fmt.Sprintf("workshop_%d.vpk", 100+i)
	}

	var prev []Entry
	for _, i := range r.Perm(len(pool))[:r.Intn(len(pool))] {
		prev = append(prev, Entry{
			Name:    pool[i],
			Order:   r.Intn(20),
			Enabled: r.Intn(2) == 0,
		})
	}
	normalizeIDs(prev)

	var discovered []string
	for _, i := range r.Perm(len(pool))[:r.Intn(len(pool))] {
		discovered = append(discovered, pool[i])
	}
	return prev, discovered
}

func TestReconcile_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		prev, discovered := randomScenario(r)

		once, _ := Reconcile(prev, discovered)
		again, _ := Reconcile(prev, discovered)
		twice, droppedTwice := Reconcile(once, discovered)

		require.Equal(t, once, again, "deterministic")
		require.Equal(t, once, twice, "idempotent")
		require.Empty(t, droppedTwice)

		ids := make(map[string]bool)
		for _, e := range once {
			require.False(t, ids[e.AddonID], "duplicate id %s", e.AddonID)
			ids[e.AddonID] = true
		}
		require.ElementsMatch(t, discovered, names(once))
	}
}

func TestNormalizeIDs(t *testing.T) {
	entries := []Entry{
		{Name: "a.vpk", AddonID: "addon2"},
		{Name: "b.vpk"},
		{Name: "c.vpk", AddonID: "addon2"},
		{Name: "d.vpk", AddonID: "addon1"},
	}

	assert.True(t, normalizeIDs(entries))
	assert.Equal(t, "addon2", entries[0].AddonID)
	assert.Equal(t, "addon3", entries[1].AddonID)
	assert.Equal(t, "addon4", entries[2].AddonID)
	assert.Equal(t, "addon1", entries[3].AddonID)

	assert.False(t, normalizeIDs(entries))
}
