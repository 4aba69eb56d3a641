package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/xcroster/internal/domain/model"
)

func seededForBench(b *testing.B, athletes, meets int) *SQLStore {
	b.Helper()
	s := openTestStore(b)
	ctx := context.Background()
	meetIDs := make([]int64, meets)
	for i := range meetIDs {
		meetIDs[i] = mustMeet(b, s, fmt.Sprintf("Meet %d", i), fmt.Sprintf("2025-09-%02d", i%28+1))
	}
	for i := 0; i < athletes; i++ {
		id := mustAthlete(b, s, fmt.Sprintf("Athlete %d", i), model.Grade(9+i%4))
		for j, m := range meetIDs {
			t := fmt.Sprintf("%02d:%02d", 16+(i+j)%6, (i*7+j)%60)
			if _, err := s.CreateResult(ctx, model.ResultInput{AthleteID: id, MeetID: m, Time: t, Place: j + 1}); err != nil {
				b.Fatalf("seed result: %v", err)
			}
		}
	}
	return s
}

func BenchmarkSQLStore_TopTimes(b *testing.B) {
	s := seededForBench(b, 60, 10)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.TopTimes(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSQLStore_MeetResults(b *testing.B) {
	s := seededForBench(b, 60, 10)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.MeetResults(ctx, 1); err != nil {
			b.Fatal(err)
		}
	}
}
