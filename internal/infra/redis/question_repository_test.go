package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-queue-service/internal/domain"
	"trivia-queue-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
			"japan": sampleSet(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	set, err := repo.GetQuestionSet(context.Background(), "japan")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].CorrectOption != 2 {
		t.Fatalf("unexpected set %+v", set)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("trivia:set:japan") {
		t.Fatalf("expected set cached in redis")
	}

	// Second call should hit the Redis cache; the full payload round-trips.
	set, err = repo.GetQuestionSet(context.Background(), "japan")
	if err != nil {
		t.Fatalf("get set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if set.Questions[0].Explanation == "" || len(set.Questions[0].Options) != domain.OptionCount {
		t.Fatalf("cached set lost content: %+v", set.Questions[0])
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "japan",
		Questions: []domain.Question{
			{
				Text:          "What is the capital of Japan?",
				Options:       []string{"Osaka", "Kyoto", "Tokyo", "Sapporo"},
				CorrectOption: 2,
				Explanation:   "Tokyo has been the capital since 1868.",
			},
		},
	}
}
