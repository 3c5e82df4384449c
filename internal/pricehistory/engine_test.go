package pricehistory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var tomatoes = Key{Product: "Roma Tomatoes", Supplier: "Sysco", UnitType: "case"}

func obs(price, link, date string) Observation {
	return Observation{Key: tomatoes, Price: price, Link: link, Date: date}
}

func TestRecordObservation_NewProduct(t *testing.T) {
	for _, price := range []string{"$10.00", "$0.00", "", "call for price"} {
		t.Run(fmt.Sprintf("price %q", price), func(t *testing.T) {
			table, upd := RecordObservation(Table{}, obs(price, "file:///a.png", "2024-01-02"))

			assert.Equal(t, NewProduct, upd.Classification)
			assert.Equal(t, 0.0, upd.DeltaPercent)
			assert.Equal(t, 1, upd.State.ObservationCount)
			assert.Nil(t, upd.State.PreviousPrice)
			assert.Nil(t, upd.State.PreviousLink)
			assert.Equal(t, price, table[tomatoes].CurrentPrice)
		})
	}
}

func TestRecordObservation_Increase(t *testing.T) {
	table, _ := RecordObservation(nil, obs("$10.00", "link-1", "2024-01-02"))
	table, upd := RecordObservation(table, obs("$12.00", "link-2", "2024-02-02"))

	assert.Equal(t, Increase, upd.Classification)
	assert.InDelta(t, 20.0, upd.DeltaPercent, 1e-9)

	st := table[tomatoes]
	require.NotNil(t, st.PreviousPrice)
	assert.Equal(t, "$10.00", *st.PreviousPrice)
	assert.Equal(t, "link-1", *st.PreviousLink)
	assert.Equal(t, "$12.00", st.CurrentPrice)
	assert.Equal(t, "link-2", st.CurrentLink)
	assert.Equal(t, "2024-02-02", st.LastUpdated)
	assert.Equal(t, 2, st.ObservationCount)
	assert.Equal(t, Increase, st.LastClassification)
}

func TestRecordObservation_Sequence(t *testing.T) {
	tests := []struct {
		price string
		class Classification
		delta float64
	}{
		{"$8.00", NewProduct, 0},
		{"$6.00", Decrease, -25},
		{"6.00 USD", Unchanged, 0},
		{"$0.00", Decrease, -100},
		{"$5.00", Unchanged, 0}, // previous is zero
		{"n/a", Unchanged, 0},
		{"$5.50", Unchanged, 0}, // previous is non-numeric
		{"$1,100.00", Increase, 19900},
	}

	table := Table{}
	for i, tt := range tests {
		var upd Update
		table, upd = RecordObservation(table, obs(tt.price, "", "2024-01-01"))

		assert.Equal(t, tt.class, upd.Classification, "step %d", i)
		assert.InDelta(t, tt.delta, upd.DeltaPercent, 1e-9, "step %d", i)
		assert.Equal(t, i+1, upd.State.ObservationCount, "step %d", i)
	}
}

func TestRecordObservation_DoesNotMutateInput(t *testing.T) {
	first, _ := RecordObservation(Table{}, obs("$10.00", "a", "2024-01-01"))
	second, _ := RecordObservation(first, obs("$11.00", "b", "2024-01-02"))

	assert.Equal(t, "$10.00", first[tomatoes].CurrentPrice)
	assert.Equal(t, 1, first[tomatoes].ObservationCount)
	assert.Equal(t, "$11.00", second[tomatoes].CurrentPrice)
}

func TestRecordObservation_KeysAreIndependent(t *testing.T) {
	other := Key{Product: "Roma Tomatoes", Supplier: "Sysco", UnitType: "lb"}

	table, _ := RecordObservation(Table{}, obs("$10.00", "", "2024-01-01"))
	table, upd := RecordObservation(table, Observation{Key: other, Price: "$1.00"})

	assert.Equal(t, NewProduct, upd.Classification)
	assert.Len(t, table, 2)
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$12.00", "12", true},
		{"USD 1,234.50", "1234.5", true},
		{"-3.25", "-3.25", true},
		{"", "0", false},
		{"free", "0", false},
		{"1.2.3", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := Numeric(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestTracker_ObserveAndSnapshot(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore(), zaptest.NewLogger(t))

	upd, err := tr.Observe(ctx, obs("$10.00", "a", "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, NewProduct, upd.Classification)

	upd, err = tr.Observe(ctx, obs("$12.00", "b", "2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, Increase, upd.Classification)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, snap, tomatoes)
	assert.Equal(t, 2, snap[tomatoes].ObservationCount)
}

func TestTracker_ConcurrentObservationsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore(), nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := tr.Observe(ctx, obs(fmt.Sprintf("$%d.00", i+1), "", "2024-01-01"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, snap[tomatoes].ObservationCount)
}

func TestTable_Sorted(t *testing.T) {
	table := Table{
		{Product: "b", Supplier: "x"}: {Key: Key{Product: "b", Supplier: "x"}},
		{Product: "a", Supplier: "y"}: {Key: Key{Product: "a", Supplier: "y"}},
		{Product: "a", Supplier: "x"}: {Key: Key{Product: "a", Supplier: "x"}},
	}

	sorted := table.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, Key{Product: "a", Supplier: "x"}, sorted[0].Key)
	assert.Equal(t, Key{Product: "b", Supplier: "x"}, sorted[1].Key)
	assert.Equal(t, Key{Product: "a", Supplier: "y"}, sorted[2].Key)
}
