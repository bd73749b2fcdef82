package services

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// ListCourses lists every course the token can access.
func (c *CanvasClient) ListCourses(ctx context.Context) ([]models.Course, error) {
	q := url.Values{}
	q.Add("include[]", "term")
	return FetchAll[models.Course](ctx, c, c.endpoint("COURSES"), q)
}

// FilterCourses keeps courses whose name contains filter (case-insensitive)
// and that were created on or after since. Undated courses are always kept
// and sort last; the rest sort by creation date.
func FilterCourses(courses []models.Course, filter string, since time.Time) []models.Course {
	needle := strings.ToLower(filter)
	sinceDay := since.UTC().Truncate(24 * time.Hour)

	var out []models.Course
	for _, course := range courses {
		if !strings.Contains(strings.ToLower(course.Name), needle) {
			continue
		}
		if !course.CreatedAt.IsZero() && course.CreatedAt.Time().UTC().Before(sinceDay) {
			continue
		}
		out = append(out, course)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Time().Before(b.Time())
	})
	return out
}
