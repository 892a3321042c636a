package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type entry struct {
	ID int `json:"id"`
}

func TestLog_Append(t *testing.T) {
	type testCase struct {
		name     string
		capacity int
		appended int
		expected []int
	}

	cases := []testCase{
		{name: "under capacity", capacity: 5, appended: 3, expected: []int{0, 1, 2}},
		{name: "oldest evicted first", capacity: 3, appended: 5, expected: []int{2, 3, 4}},
		{name: "exactly at capacity", capacity: 2, appended: 2, expected: []int{0, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := New[entry](tc.capacity)
			for i := 0; i < tc.appended; i++ {
				log.Append(&entry{ID: i})
			}
			var actual []int
			for _, e := range log.Snapshot(nil, 0) {
				actual = append(actual, e.ID)
			}
			assert.EqualValues(t, tc.expected, actual)
			assert.Equal(t, len(tc.expected), log.Len())
		})
	}
}

func TestLog_Snapshot(t *testing.T) {
	log := New[entry](0)
	for i := 0; i < 10; i++ {
		log.Append(&entry{ID: i})
	}
	even := func(e *entry) bool { return e.ID%2 == 0 }

	first := log.Snapshot(even, 2)
	second := log.Snapshot(even, 2)
	assert.EqualValues(t, first, second)
	assert.Len(t, first, 2)
	assert.Equal(t, 6, first[0].ID)
	assert.Equal(t, 8, first[1].ID)
}

func TestLog_Export(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/audit/log.json"

	log := New[entry](0)
	log.Append(&entry{ID: 1})
	log.Append(&entry{ID: 2})
	assert.NoError(t, log.Export(ctx, fs, URL))

	data, err := fs.DownloadWithURL(ctx, URL)
	assert.NoError(t, err)
	var actual []entry
	assert.NoError(t, json.Unmarshal(data, &actual))
	assert.EqualValues(t, []entry{{ID: 1}, {ID: 2}}, actual)
}
