package memadapter

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alp4ka/keyset"
)

type tMeter struct {
	ID          int
	CounterName string
	ResourceID  string
	Volume      float64
}

var _meterGetters = keyset.Getters[tMeter]{
	"id":           func(m tMeter) any { return m.ID },
	"counter_name": func(m tMeter) any { return m.CounterName },
	"resource_id":  func(m tMeter) any { return m.ResourceID },
	"volume":       func(m tMeter) any { return m.Volume },
}

// seedMeters mirrors the demo dataset: 20 meters over 10 resources, one per
// (resource_id, counter_name) pair.
func seedMeters() []tMeter {
	ret := make([]tMeter, 0, 20)
	for i := 0; i < 20; i++ {
		name := "even"
		if (i/10+i)%2 == 1 {
			name = "odd"
		}
		ret = append(ret, tMeter{
			ID:          i + 1,
			CounterName: name,
			ResourceID:  fmt.Sprintf("id%d", i%10),
			Volume:      float64(i),
		})
	}

	return ret
}

func fetchPage(t *testing.T, rows []tMeter, spec keyset.SortSpec, marker keyset.Marker, limit int) []tMeter {
	t.Helper()

	q, err := keyset.BuildPage(spec, marker, limit)
	require.NoError(t, err)

	page, err := keyset.Fetch[tMeter](context.Background(), New(rows, _meterGetters), q)
	require.NoError(t, err)

	return page
}

func Test_Adapter_MeterWalkthrough(t *testing.T) {
	spec, err := keyset.NewSortSpec(
		[]string{"counter_name", "resource_id"},
		keyset.SpecOptions{Direction: keyset.DirectionDESC},
	)
	require.NoError(t, err)

	type key struct{ name, resource string }
	keysOf := func(ms []tMeter) []key {
		ret := make([]key, 0, len(ms))
		for _, m := range ms {
			ret = append(ret, key{m.CounterName, m.ResourceID})
		}
		return ret
	}

	rows := seedMeters()

	require.Len(t, fetchPage(t, rows, spec, nil, keyset.NoLimit), 20)
	require.Equal(t,
		[]key{{"odd", "id9"}, {"odd", "id8"}, {"odd", "id7"}},
		keysOf(fetchPage(t, rows, spec, nil, 3)),
	)
	require.Equal(t,
		[]key{{"odd", "id6"}, {"odd", "id5"}, {"odd", "id4"}},
		keysOf(fetchPage(t, rows, spec, keyset.Marker{"counter_name": "odd", "resource_id": "id7"}, 3)),
	)
	require.Equal(t,
		[]key{{"odd", "id0"}, {"even", "id9"}, {"even", "id8"}},
		keysOf(fetchPage(t, rows, spec, keyset.Marker{"counter_name": "odd", "resource_id": "id1"}, 3)),
	)
	require.Equal(t,
		[]key{{"even", "id7"}, {"even", "id6"}, {"even", "id5"}},
		keysOf(fetchPage(t, rows, spec, keyset.Marker{"counter_name": "even", "resource_id": "id8"}, 3)),
	)
}

func Test_Adapter_KeysetCompleteness(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	rows := make([]tMeter, 0, 200)
	for i := 0; i < 200; i++ {
		rows = append(rows, tMeter{
			ID:          i + 1,
			CounterName: []string{"cpu", "disk", "net"}[rnd.Intn(3)],
			ResourceID:  fmt.Sprintf("id%d", rnd.Intn(7)),
			Volume:      float64(rnd.Intn(5)),
		})
	}
	rnd.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	columns := []string{"counter_name", "volume", "resource_id", "id"}
	dirs := []keyset.Direction{keyset.DirectionASC, keyset.DirectionDESC}

	for mask := 0; mask < 1<<len(columns); mask++ {
		directions := make([]keyset.Direction, 0, len(columns))
		for i := range columns {
			directions = append(directions, dirs[(mask>>i)&1])
		}

		spec, err := keyset.NewSortSpec(columns, keyset.SpecOptions{Directions: directions})
		require.NoError(t, err)

		for _, limit := range []int{1, 7, 50, 199, 200, 500} {
			t.Run(fmt.Sprintf("%v/limit=%d", directions, limit), func(t *testing.T) {
				full := fetchPage(t, rows, spec, nil, keyset.NoLimit)
				require.Len(t, full, len(rows))

				var (
					walked []tMeter
					marker keyset.Marker
				)
				for pages := 0; pages <= len(rows); pages++ {
					page := fetchPage(t, rows, spec, marker, limit)
					if len(page) == 0 {
						break
					}
					require.LessOrEqual(t, len(page), limit)

					walked = append(walked, page...)
					marker, err = keyset.MarkerOf(spec, page[len(page)-1], _meterGetters)
					require.NoError(t, err)
				}

				require.Equal(t, full, walked)
			})
		}
	}
}

func Test_Adapter_SingleKeyMatchesBareInequality(t *testing.T) {
	rows := seedMeters()
	spec := keyset.MustSortSpec(keyset.SortKey{Column: "id", Direction: keyset.DirectionASC})

	page := fetchPage(t, rows, spec, keyset.Marker{"id": 15}, keyset.NoLimit)

	var want []tMeter
	for _, m := range rows {
		if m.ID > 15 {
			want = append(want, m)
		}
	}
	require.Equal(t, want, page)
}

func Test_Adapter_ZeroLimit(t *testing.T) {
	spec := keyset.MustSortSpec(keyset.SortKey{Column: "id", Direction: keyset.DirectionASC})

	page := fetchPage(t, seedMeters(), spec, nil, 0)
	require.NotNil(t, page)
	require.Empty(t, page)

	a := New(seedMeters(), _meterGetters)
	require.NoError(t, a.ApplyLimit(0))
	rows, err := a.Execute(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}

func Test_Adapter_Errors(t *testing.T) {
	a := New(seedMeters(), _meterGetters)

	err := a.ApplyOrdering(keyset.Orderings{{Column: "unknown", Direction: keyset.DirectionASC}})
	require.ErrorIs(t, err, keyset.ErrUnknownSortKey)

	err = a.ApplyFilter(keyset.CompoundPredicate{{{Column: "nope", Operator: keyset.OperatorGT, Value: 1}}})
	require.ErrorIs(t, err, keyset.ErrUnknownSortKey)

	require.ErrorIs(t, a.ApplyLimit(-1), keyset.ErrInvalidLimit)

	// A marker value of another type than the column is never coerced.
	require.NoError(t, a.ApplyFilter(keyset.CompoundPredicate{{{Column: "id", Operator: keyset.OperatorGT, Value: "3"}}}))
	_, err = a.Execute(context.Background())
	require.ErrorIs(t, err, keyset.ErrIncomparableValues)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(seedMeters(), _meterGetters).Execute(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func Test_Adapter_DoesNotModifySource(t *testing.T) {
	rows := seedMeters()
	orig := slices.Clone(rows)

	spec := keyset.MustSortSpec(keyset.SortKey{Column: "id", Direction: keyset.DirectionDESC})
	_ = fetchPage(t, rows, spec, nil, 5)

	require.Equal(t, orig, rows)
}

func Test_Adapter_NilOrdering(t *testing.T) {
	type tSample struct {
		ID    int
		Value any
	}

	getters := keyset.Getters[tSample]{
		"id":    func(s tSample) any { return s.ID },
		"value": func(s tSample) any { return s.Value },
	}
	rows := []tSample{{1, nil}, {2, 5}, {3, nil}, {4, 1}}

	tests := []struct {
		name      string
		direction keyset.Direction
		want      []int
	}{
		{"nil last ascending", keyset.DirectionASC, []int{4, 2, 1, 3}},
		{"nil first descending", keyset.DirectionDESC, []int{1, 3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(rows, getters)
			require.NoError(t, a.ApplyOrdering(keyset.Orderings{
				{Column: "value", Direction: tt.direction},
				{Column: "id", Direction: keyset.DirectionASC},
			}))

			got, err := a.Execute(context.Background())
			require.NoError(t, err)

			ids := make([]int, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}
