package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/task"
)

var now = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func at(days int, hour int) *time.Time {
	t := time.Date(2024, 3, 10+days, hour, 0, 0, 0, time.UTC)
	return &t
}

func sec(s string) *string { return &s }

func titles(ts []task.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Title)
	}
	return out
}

func fixture() []task.Task {
	return []task.Task{
		{ID: 1, Title: "overdue", DueDate: at(-1, 9), Priority: task.PriorityLow, Project: "Work"},
		{ID: 2, Title: "today early", DueDate: at(0, 0), Priority: task.PriorityUrgent, Labels: []string{"errand"}},
		{ID: 3, Title: "today late", DueDate: at(0, 23), Priority: task.PriorityMedium, Completed: true},
		{ID: 4, Title: "in six days", DueDate: at(6, 23), Priority: task.PriorityHigh, Project: "work"},
		{ID: 5, Title: "in seven days", DueDate: at(7, 0), Priority: task.PriorityMedium},
		{ID: 6, Title: "someday", Priority: task.PriorityHigh, Labels: []string{"errand", "home"}},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		view string
		want []string
	}{
		{All, []string{"overdue", "today early", "today late", "in six days", "in seven days", "someday"}},
		{Today, []string{"today early", "today late"}},
		{Upcoming, []string{"today early", "today late", "in six days"}},
		{Important, []string{"today early", "in six days", "someday"}},
		{Completed, []string{"today late"}},
		{"project:WORK", []string{"overdue", "in six days"}},
		{"label:errand", []string{"today early", "someday"}},
		{"label:Errand", []string{}},
		{"nonsense", []string{"overdue", "today early", "today late", "in six days", "in seven days", "someday"}},
	}

	for _, tc := range tests {
		t.Run(tc.view, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(Filter(fixture(), tc.view, now)))
		})
	}
}

func TestFilter_TodayUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2024, 3, 10, 20, 0, 0, 0, loc) // 01:00 UTC on the 11th
	due := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC) // 21:00 local on the 10th

	got := Filter([]task.Task{{Title: "x", DueDate: &due}}, Today, local)
	assert.Len(t, got, 1)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	out := Filter(in, All, now)
	out[0].Title = "changed"
	assert.Equal(t, "overdue", in[0].Title)
}

func TestSort(t *testing.T) {
	in := fixture()

	assert.Equal(t,
		[]string{"overdue", "today early", "today late", "in six days", "in seven days", "someday"},
		titles(Sort(in, SortDueDate)))

	assert.Equal(t,
		[]string{"today early", "in six days", "someday", "today late", "in seven days", "overdue"},
		titles(Sort(in, SortPriority)))

	assert.Equal(t, titles(in), titles(Sort(in, "bogus")))
}

func TestSort_DueDateStableForMissingDates(t *testing.T) {
	in := []task.Task{
		{Title: "b"},
		{Title: "a", DueDate: at(1, 0)},
		{Title: "c"},
	}
	assert.Equal(t, []string{"a", "b", "c"}, titles(Sort(in, SortDueDate)))
}

func TestSort_CreatedAtNewestFirst(t *testing.T) {
	in := []task.Task{
		{Title: "old", CreatedAt: now.Add(-time.Hour)},
		{Title: "new", CreatedAt: now},
		{Title: "mid", CreatedAt: now.Add(-time.Minute)},
	}
	assert.Equal(t, []string{"new", "mid", "old"}, titles(Sort(in, SortCreatedAt)))
}

func TestSort_TitleCollates(t *testing.T) {
	in := []task.Task{{Title: "zebra"}, {Title: "Éclair"}, {Title: "apple"}, {Title: "Banana"}}
	assert.Equal(t, []string{"apple", "Banana", "Éclair", "zebra"}, titles(Sort(in, SortTitle)))
	assert.Equal(t, "zebra", in[0].Title)
}

func TestSort_Idempotent(t *testing.T) {
	created := now.Add(-time.Hour)
	in := append(fixture(),
		task.Task{ID: 7, Title: "Apple", DueDate: at(0, 0), Priority: task.PriorityUrgent, CreatedAt: created},
		task.Task{ID: 8, Title: "apple", Priority: task.PriorityHigh, CreatedAt: created},
		task.Task{ID: 9, Title: "APPLE", DueDate: at(0, 0), Priority: task.PriorityLow, CreatedAt: created},
		task.Task{ID: 10, Title: "someday", Priority: task.PriorityHigh},
	)

	ids := func(ts []task.Task) []int {
		out := make([]int, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	for _, key := range []string{SortDueDate, SortPriority, SortCreatedAt, SortTitle, "bogus"} {
		t.Run(key, func(t *testing.T) {
			once := Sort(in, key)
			require.Len(t, once, len(in))
			assert.Equal(t, ids(once), ids(Sort(once, key)))
		})
	}
}

func TestApply(t *testing.T) {
	got := Apply(fixture(), Important, SortPriority, now)
	assert.Equal(t, []string{"today early", "in six days", "someday"}, titles(got))
}

func TestGroupByDate(t *testing.T) {
	in := Sort(Filter(fixture(), Upcoming, now), SortDueDate)
	in = append(in, task.Task{Title: "loose"})

	groups := GroupByDate(in, now)
	require.Len(t, groups, 3)
	assert.Equal(t, "Today", groups[0].Title)
	assert.Equal(t, []string{"today early", "today late"}, titles(groups[0].Tasks))
	assert.Equal(t, "Sat, Mar 16 2024", groups[1].Title)
	assert.Equal(t, NoDueDate, groups[2].Title)

	tomorrow := GroupByDate([]task.Task{{Title: "t", DueDate: at(1, 8)}}, now)
	assert.Equal(t, "Tomorrow", tomorrow[0].Title)
}

func TestGroupBySection(t *testing.T) {
	in := []task.Task{
		{Title: "a", Section: sec("Later")},
		{Title: "b"},
		{Title: "c", Section: sec("Now")},
		{Title: "d", Section: sec("Later")},
	}

	groups := GroupBySection(in)
	require.Len(t, groups, 3)
	assert.Equal(t, NoSection, groups[0].Title)
	assert.Equal(t, []string{"b"}, titles(groups[0].Tasks))
	assert.Equal(t, "Later", groups[1].Title)
	assert.Equal(t, []string{"a", "d"}, titles(groups[1].Tasks))
	assert.Equal(t, "Now", groups[2].Title)

	onlySections := GroupBySection(in[2:])
	require.Len(t, onlySections, 2)
	assert.Equal(t, "Now", onlySections[0].Title)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, LayoutByDate, Layout(Today))
	assert.Equal(t, LayoutByDate, Layout(Upcoming))
	assert.Equal(t, LayoutBySection, Layout("project:home"))
	assert.Equal(t, LayoutFlat, Layout(All))
	assert.Equal(t, LayoutFlat, Layout("label:x"))

	assert.Nil(t, Groups(nil, All, now))
	assert.Len(t, Groups(fixture(), All, now), 1)
}
