package coach

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"liftly.app/liftly/internal/model"
	"liftly.app/liftly/internal/modules/coach/provider"
	postDto "liftly.app/liftly/internal/modules/post/dto"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	postService "liftly.app/liftly/internal/modules/post/service"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
)

const maxReplyLen = 600

// Orchestrator turns a coach mention into a bot reply. The whole pipeline
// runs detached from the summoning request: a failure here is logged and the
// member's post stands untouched.
type Orchestrator struct {
	postRepo       postRepo.PostRepository
	userRepo       userRepo.UserRepository
	contextBuilder *ContextBuilder
	completer      provider.Completer
	postService    postService.PostService
	timeout        time.Duration
}

func NewOrchestrator(
	postRepo postRepo.PostRepository,
	userRepo userRepo.UserRepository,
	contextBuilder *ContextBuilder,
	completer provider.Completer,
	postService postService.PostService,
	timeout time.Duration,
) *Orchestrator {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Orchestrator{
		postRepo:       postRepo,
		userRepo:       userRepo,
		contextBuilder: contextBuilder,
		completer:      completer,
		postService:    postService,
		timeout:        timeout,
	}
}

// Summon implements the post module's Summoner contract.
func (o *Orchestrator) Summon(postID uuid.UUID) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[coach] panic while replying to %s: %v", postID, r)
			}
		}()
		if err := o.Reply(context.Background(), postID); err != nil {
			log.Printf("[coach] reply to %s failed: %v", postID, err)
		}
	}()
}

// Reply runs the full pipeline synchronously. Exposed separately from Summon
// so callers that need the result (tests, backfills) can wait for it.
func (o *Orchestrator) Reply(ctx context.Context, postID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	post, err := o.postRepo.FindByIDAny(ctx, postID)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	if post.IsDeleted() {
		return nil
	}

	author, err := o.userRepo.FindByID(ctx, post.AuthorID.String())
	if err != nil {
		return fmt.Errorf("load author: %w", err)
	}
	// The coach never answers itself; summons from bot posts are dropped.
	if author.Role == model.RoleBot {
		return nil
	}

	bot, err := o.ensureBot(ctx)
	if err != nil {
		return fmt.Errorf("ensure bot account: %w", err)
	}

	mc, err := o.contextBuilder.Build(ctx, author)
	if err != nil {
		return fmt.Errorf("build member context: %w", err)
	}

	thread, err := o.threadSnapshot(ctx, post)
	if err != nil {
		return fmt.Errorf("snapshot thread: %w", err)
	}

	raw, err := o.completer.Complete(ctx, buildPrompt(mc, thread))
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	body := sanitizeReply(raw)
	if body == "" {
		return fmt.Errorf("generated reply was empty")
	}

	// The reply goes through the regular creation path so counters, thread
	// placement and fanout behave exactly as a member reply would.
	_, err = o.postService.CreatePost(ctx, bot.ID, postDto.CreatePostRequest{
		Body:     body,
		Kind:     model.KindNote,
		ParentID: post.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("persist reply: %w", err)
	}

	return nil
}

// ensureBot resolves the coach account, creating it on first summon.
func (o *Orchestrator) ensureBot(ctx context.Context) (*model.User, error) {
	bot, err := o.userRepo.FindByHandle(ctx, model.BotHandle)
	if err == nil {
		return bot, nil
	}

	bot = &model.User{
		Handle:      model.BotHandle,
		DisplayName: "Coach",
		Email:       "coach@liftly.app",
		Role:        model.RoleBot,
	}
	if err := o.userRepo.Create(ctx, bot); err != nil {
		// Lost a creation race; the row exists now.
		if existing, lookupErr := o.userRepo.FindByHandle(ctx, model.BotHandle); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return bot, nil
}

// threadSnapshot renders the live conversation around the summoning post,
// capped to the most recent lines.
func (o *Orchestrator) threadSnapshot(ctx context.Context, post *model.Post) ([]threadLine, error) {
	posts, err := o.postRepo.FindThread(ctx, post.ThreadRoot())
	if err != nil {
		return nil, err
	}

	if len(posts) > maxThreadLines {
		posts = posts[len(posts)-maxThreadLines:]
	}

	lines := make([]threadLine, 0, len(posts))
	for _, p := range posts {
		handle := p.Author.Handle
		if handle == "" {
			handle = "unknown"
		}
		lines = append(lines, threadLine{
			Handle:  handle,
			Body:    p.Body,
			Root:    p.ParentID == nil,
			Summons: p.ID == post.ID,
		})
	}
	return lines, nil
}

// sanitizeReply trims and caps the completion, cutting on a rune boundary
// and then backing up to a word boundary when one exists.
func sanitizeReply(raw string) string {
	body := strings.TrimSpace(raw)
	runes := []rune(body)
	if len(runes) > maxReplyLen {
		cut := string(runes[:maxReplyLen])
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		body = cut
	}
	return body
}
