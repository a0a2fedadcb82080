package seeds

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/google/uuid"
	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/repository"
)

const seedViewers = 20

// Setup persists the validated catalog and a handful of anonymous viewers so
// the batch warm-up endpoint has someone to warm.
func Setup(ctx context.Context, repo *repository.Repository, videos []domain.VideoRecord) error {
	log.Printf("[seed] inserting %d videos", len(videos))
	if err := repo.UpsertVideos(ctx, videos); err != nil {
		return fmt.Errorf("seed videos: %w", err)
	}

	log.Println("[seed] inserting viewers")
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < seedViewers; i++ {
		id := uuid.Must(uuid.NewRandomFromReader(rng)).String()
		if err := repo.CreateViewer(ctx, id); err != nil {
			return fmt.Errorf("seed viewer %d: %w", i, err)
		}
	}

	log.Println("[seed] seeding complete")
	return nil
}
