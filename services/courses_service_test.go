package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

func date(y int, m time.Month, d int) *models.Date {
	v := models.Date(time.Date(y, m, d, 12, 0, 0, 0, time.UTC))
	return &v
}

func names(courses []models.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Name
	}
	return out
}

func TestFilterCourses(t *testing.T) {
	courses := []models.Course{
		{ID: 1, Name: "DSCI 100 2024W1", CreatedAt: date(2024, 6, 1)},
		{ID: 2, Name: "Sandbox", CreatedAt: nil},
		{ID: 3, Name: "dsci 531 2023W2", CreatedAt: date(2023, 11, 1)},
		{ID: 4, Name: "STAT 201", CreatedAt: date(2024, 1, 15)},
		{ID: 5, Name: "DSCI 310 2024W1", CreatedAt: date(2024, 1, 15)},
	}

	since := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"STAT 201", "DSCI 310 2024W1", "DSCI 100 2024W1", "Sandbox"}, names(FilterCourses(courses, "", since)))
	assert.Equal(t, []string{"DSCI 310 2024W1", "DSCI 100 2024W1"}, names(FilterCourses(courses, "Dsci", since)))
	assert.Equal(t, []string{"dsci 531 2023W2", "DSCI 310 2024W1", "DSCI 100 2024W1"}, names(FilterCourses(courses, "DSCI", time.Time{})))
}

func TestListCourses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"term"}, r.URL.Query()["include[]"])
		writeJSON(w, []map[string]interface{}{
			{"id": 1, "name": "DSCI 100", "created_at": "2024-01-08T17:02:11Z", "term": map[string]interface{}{"id": 3, "name": "2024W1"}},
			{"id": 2, "name": "Sandbox", "created_at": nil},
		})
	})
	client, _ := newTestClient(t, mux)

	courses, err := client.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.NotNil(t, courses[0].Term)
	assert.Equal(t, "2024W1", courses[0].Term.Name)
	assert.True(t, courses[1].CreatedAt.IsZero())
}
