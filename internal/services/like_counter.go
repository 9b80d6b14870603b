package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/socialnet/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LikeCounter keeps posts.like_count equal to the number of like rows of each post.
// The stored value is always recomputed from the likes table, never incremented.
type LikeCounter struct {
	db        *gorm.DB
	likes     repositories.LikeRepository
	posts     repositories.PostRepository
	attempts  int
	batchSize int
	logger    *zap.Logger
}

// ReconcileReport summarizes a reconciliation pass
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
}

func NewLikeCounter(db *gorm.DB, likes repositories.LikeRepository, posts repositories.PostRepository, attempts, batchSize int, logger *zap.Logger) *LikeCounter {
	if attempts < 1 {
		attempts = 1
	}
	if batchSize < 1 {
		batchSize = 500
	}
	return &LikeCounter{
		db:        db,
		likes:     likes,
		posts:     posts,
		attempts:  attempts,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Recompute counts the likes of postID and stores the result, inside tx.
// The caller must hold the post row lock and must not have run a plain read in
// tx before taking it: under REPEATABLE READ that read would pin a snapshot
// older than the lock and the count would miss committed likes. Each attempt runs in a savepoint so a
// failed attempt leaves tx usable; when all attempts fail the caller must roll back.
func (c *LikeCounter) Recompute(ctx context.Context, tx *gorm.DB, postID uint) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		var count int64
		err := tx.Transaction(func(sp *gorm.DB) error {
			n, err := c.likes.WithTx(sp).CountByPostID(ctx, postID)
			if err != nil {
				return err
			}
			if err := c.posts.WithTx(sp).SetLikeCount(ctx, postID, n); err != nil {
				return err
			}
			count = n
			return nil
		})
		if err == nil {
			return count, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		lastErr = err
		c.logger.Warn("like_count recompute failed",
			zap.Uint("post_id", postID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	c.logger.Error("like_count recompute exhausted retries",
		zap.Uint("post_id", postID),
		zap.Int("attempts", c.attempts),
		zap.Error(lastErr),
	)
	return 0, fmt.Errorf("%w: post %d: %v", repositories.ErrConsistencyRecoveryNeeded, postID, lastErr)
}

// LockPosts takes the row locks of postIDs in ascending order and returns the
// ids that still exist.
func (c *LikeCounter) LockPosts(ctx context.Context, tx *gorm.DB, postIDs []uint) ([]uint, error) {
	return c.posts.WithTx(tx).LockPostsForUpdate(ctx, postIDs)
}

// RecomputeMany locks postIDs in ascending order and recomputes each of them in tx.
// Posts that no longer exist are skipped.
func (c *LikeCounter) RecomputeMany(ctx context.Context, tx *gorm.DB, postIDs []uint) error {
	locked, err := c.LockPosts(ctx, tx, postIDs)
	if err != nil {
		return err
	}
	for _, id := range locked {
		if _, err := c.Recompute(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// ReconcilePost repairs the counter of a single post and reports whether it had drifted.
func (c *LikeCounter) ReconcilePost(ctx context.Context, postID uint) (bool, error) {
	corrected := false
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := c.posts.WithTx(tx).LockPostForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		count, err := c.likes.WithTx(tx).CountByPostID(ctx, postID)
		if err != nil {
			return err
		}
		if post.LikeCount == count {
			return nil
		}
		if err := c.posts.WithTx(tx).SetLikeCount(ctx, postID, count); err != nil {
			return err
		}
		c.logger.Info("like_count corrected",
			zap.Uint("post_id", postID),
			zap.Int64("stored", post.LikeCount),
			zap.Int64("actual", count),
		)
		corrected = true
		return nil
	})
	if errors.Is(err, repositories.ErrNotFound) {
		// deleted after it was listed
		return false, nil
	}
	return corrected, err
}

// Reconcile walks every post in id order and repairs drifted counters.
// Running it again right away corrects nothing.
func (c *LikeCounter) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := c.posts.GetPostIDsAfter(ctx, afterID, c.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to list posts after %d: %w", afterID, err)
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			corrected, err := c.ReconcilePost(ctx, id)
			if err != nil {
				return report, fmt.Errorf("failed to reconcile post %d: %w", id, err)
			}
			report.Scanned++
			if corrected {
				report.Corrected++
			}
		}
		afterID = ids[len(ids)-1]
	}

	c.logger.Info("like_count reconciliation finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("corrected", report.Corrected),
	)
	return report, nil
}
