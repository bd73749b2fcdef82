package services

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

func (c *CanvasClient) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	var course models.Course
	q := url.Values{}
	q.Add("include[]", "term")
	if _, err := c.getJSON(ctx, c.endpoint("COURSE", courseID)+"?"+q.Encode(), &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListEnrollments downloads the enrollments of one type and state, grades
// included.
func (c *CanvasClient) ListEnrollments(ctx context.Context, courseID int, enrollmentType, state string) ([]models.Enrollment, error) {
	q := url.Values{}
	if enrollmentType != "" {
		q.Add("type[]", enrollmentType)
	}
	if state != "" {
		q.Add("state[]", state)
	}

	enrollments, err := FetchAll[models.Enrollment](ctx, c, c.endpoint("ENROLLMENTS", courseID), q)
	if err != nil {
		return nil, err
	}
	c.logger.Info("enrollments fetched", zap.Int("course_id", courseID), zap.String("state", state), zap.Int("count", len(enrollments)))
	return enrollments, nil
}

func (c *CanvasClient) ListSections(ctx context.Context, courseID int) ([]models.Section, error) {
	return FetchAll[models.Section](ctx, c, c.endpoint("SECTIONS", courseID), nil)
}

// ListUsers lists every user of the course, staff included, so graders can be
// named.
func (c *CanvasClient) ListUsers(ctx context.Context, courseID int) ([]models.User, error) {
	return FetchAll[models.User](ctx, c, c.endpoint("USERS", courseID), nil)
}
