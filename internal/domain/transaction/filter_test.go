package transaction

import (
	"reflect"
	"testing"
	"time"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sampleList() []Transaction {
	return []Transaction{
		{ID: "a", Date: day(2024, time.January, 10), Type: TypeIncome, Value: 100},
		{ID: "b", Date: day(2024, time.March, 5), Type: TypeExpense, Value: 50, Category: "Alimentação"},
		{ID: "c", Date: day(2023, time.March, 20), Type: TypeExpense, Value: 30, Category: "Transporte"},
		{ID: "d", Date: day(2024, time.March, 25), Type: TypeIncome, Value: 200},
	}
}

func ids(list []Transaction) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterState
		want   []string // expected IDs in order
	}{
		{
			name:   "no filter sorts descending",
			filter: FilterState{},
			want:   []string{"d", "b", "a", "c"},
		},
		{
			name:   "month only",
			filter: FilterState{Month: 3},
			want:   []string{"d", "b", "c"},
		},
		{
			name:   "month and year",
			filter: FilterState{Month: 3, Year: 2024},
			want:   []string{"d", "b"},
		},
		{
			name:   "type only",
			filter: FilterState{Type: TypeExpense},
			want:   []string{"b", "c"},
		},
		{
			name:   "all fields set",
			filter: FilterState{Month: 3, Year: 2024, Type: TypeIncome},
			want:   []string{"d"},
		},
		{
			name:   "no match",
			filter: FilterState{Year: 1999},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleList(), tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	list := sampleList()
	before := ids(list)

	Filter(list, FilterState{})

	if after := ids(list); !reflect.DeepEqual(before, after) {
		t.Errorf("input reordered: before %v, after %v", before, after)
	}
}

func TestFilterIdempotent(t *testing.T) {
	f := FilterState{Month: 3}
	once := Filter(sampleList(), f)
	twice := Filter(once, f)

	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("filtering twice changed the result: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterStableForEqualDates(t *testing.T) {
	d := day(2024, time.June, 1)
	list := []Transaction{
		{ID: "first", Date: d},
		{ID: "second", Date: d},
		{ID: "third", Date: d},
	}

	got := ids(Filter(list, FilterState{}))
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("equal dates reordered: %v, want %v", got, want)
	}
}

func TestFilterInvalidDatesSortLast(t *testing.T) {
	list := []Transaction{
		{ID: "invalid", Date: time.Time{}},
		{ID: "valid", Date: day(2024, time.January, 1)},
	}

	got := ids(Filter(list, FilterState{}))
	want := []string{"valid", "invalid"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("invalid date position: %v, want %v", got, want)
	}
}

func TestYears(t *testing.T) {
	list := sampleList()
	list = append(list, Transaction{ID: "e", Date: time.Time{}}) // invalid, skipped

	got := Years(list)
	want := []int{2024, 2023}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Years() = %v, want %v", got, want)
	}
}
