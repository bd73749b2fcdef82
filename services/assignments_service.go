package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

func (c *CanvasClient) ListAssignments(ctx context.Context, courseID int) ([]models.Assignment, error) {
	return FetchAll[models.Assignment](ctx, c, c.endpoint("ASSIGNMENTS", courseID), nil)
}

// ListSubmissions downloads the submissions of several assignments, at most
// MaxParallelRequests at a time. Results keep the order of assignmentIDs.
func (c *CanvasClient) ListSubmissions(ctx context.Context, courseID int, assignmentIDs []int) ([]models.Submission, error) {
	start := time.Now()
	perAssignment := make([][]models.Submission, len(assignmentIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Config.MaxParallelRequests))

	for i, id := range assignmentIDs {
		g.Go(func() error {
			subs, err := FetchAll[models.Submission](gctx, c, c.endpoint("SUBMISSIONS", courseID, id), nil)
			if err != nil {
				return err
			}
			for j := range subs {
				if subs[j].AssignmentID == 0 {
					subs[j].AssignmentID = id
				}
			}
			perAssignment[i] = subs
			c.logger.Debug("submissions fetched", zap.Int("assignment_id", id), zap.Int("count", len(subs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.Submission
	for _, subs := range perAssignment {
		all = append(all, subs...)
	}
	c.logger.Info("submissions fetched",
		zap.Int("assignments", len(assignmentIDs)),
		zap.Int("count", len(all)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return all, nil
}
