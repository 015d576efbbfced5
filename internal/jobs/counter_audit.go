package jobs

import (
	"context"
	"log"

	"liftly.app/liftly/internal/model"
	likeRepo "liftly.app/liftly/internal/modules/like/repository"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
)

const auditBatchSize = 500

// CounterAuditJob recounts live replies and likes against the denormalized
// counters and logs every divergence. It never rewrites a counter; a drift
// is a bug in the write path and gets fixed there.
type CounterAuditJob struct {
	postRepo postRepo.PostRepository
	likeRepo likeRepo.LikeRepository
	schedule string
}

func NewCounterAuditJob(postRepo postRepo.PostRepository, likeRepo likeRepo.LikeRepository, schedule string) *CounterAuditJob {
	if schedule == "" {
		schedule = "30 4 * * *"
	}
	return &CounterAuditJob{postRepo: postRepo, likeRepo: likeRepo, schedule: schedule}
}

func (j *CounterAuditJob) Name() string     { return "counter-audit" }
func (j *CounterAuditJob) Schedule() string { return j.schedule }

func (j *CounterAuditJob) Run(ctx context.Context) error {
	offset := 0
	checked := 0
	drifted := 0

	for {
		posts, err := j.postRepo.CountedPostIDs(ctx, auditBatchSize, offset)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			break
		}

		for _, p := range posts {
			checked++

			replies, err := j.postRepo.CountLiveReplies(ctx, p.ID)
			if err != nil {
				log.Printf("[counter-audit] reply recount of %s failed: %v", p.ID, err)
				continue
			}
			if int64(p.ReplyCount) != replies {
				drifted++
				log.Printf("[counter-audit] post %s reply_count=%d actual=%d", p.ID, p.ReplyCount, replies)
			}

			likes, err := j.likeRepo.CountByPost(ctx, p.ID, model.LikeKindLike)
			if err != nil {
				log.Printf("[counter-audit] like recount of %s failed: %v", p.ID, err)
				continue
			}
			if int64(p.LikeCount) != likes {
				drifted++
				log.Printf("[counter-audit] post %s like_count=%d actual=%d", p.ID, p.LikeCount, likes)
			}
		}

		offset += len(posts)
	}

	log.Printf("[counter-audit] checked %d posts, %d drifted", checked, drifted)
	return nil
}
