package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestImmediateQueueDeliversAndDrains(t *testing.T) {
	q := NewImmediateQueue(time.Second, nil)
	var (
		mu   sync.Mutex
		seen []string
	)
	q.SetHandler(func(_ context.Context, job Job) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Name)
		if job.Name == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	for _, name := range []string{"a", "b", "bad"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Name: name, Payload: json.RawMessage(`{}`)}))
	}
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	require.ElementsMatch(t, []string{"a", "b", "bad"}, seen)
	mu.Unlock()

	require.ErrorIs(t, q.Enqueue(context.Background(), Job{Name: "late"}), ErrClosed)
}

func TestImmediateQueueDetachesFromRequestContext(t *testing.T) {
	q := NewImmediateQueue(time.Second, nil)
	result := make(chan error, 1)
	q.SetHandler(func(ctx context.Context, _ Job) error {
		result <- ctx.Err()
		return nil
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Enqueue(reqCtx, Job{Name: "a"}))
	require.NoError(t, <-result)
	q.Close()
}

func TestImmediateQueueWithoutHandler(t *testing.T) {
	q := NewImmediateQueue(0, nil)
	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "dropped"}))
	q.Close()
}

func TestImmediateQueueKeepsKeyedJobsInOrder(t *testing.T) {
	q := NewImmediateQueue(time.Second, nil)
	var (
		mu   sync.Mutex
		seen = map[string][]string{}
	)
	q.SetHandler(func(_ context.Context, job Job) error {
		if job.Name == "c1.start" {
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		defer mu.Unlock()
		seen[job.Key] = append(seen[job.Key], job.Name)
		return nil
	})

	for _, job := range []Job{
		{Name: "c1.start", Key: "c1"},
		{Name: "c2.start", Key: "c2"},
		{Name: "c1.answer", Key: "c1"},
		{Name: "c2.answer", Key: "c2"},
		{Name: "c1.resolve", Key: "c1"},
	} {
		require.NoError(t, q.Enqueue(context.Background(), job))
	}
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"c1.start", "c1.answer", "c1.resolve"}, seen["c1"])
	require.Equal(t, []string{"c2.start", "c2.answer"}, seen["c2"])
	require.Empty(t, q.lanes, "finished lanes are released")
}

func TestImmediateQueueRunsOtherKeysWhileOneIsBusy(t *testing.T) {
	q := NewImmediateQueue(time.Second, nil)
	release := make(chan struct{})
	done := make(chan string, 2)
	q.SetHandler(func(_ context.Context, job Job) error {
		if job.Key == "slow" {
			<-release
		}
		done <- job.Key
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "a", Key: "slow"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "b", Key: "fast"}))
	require.Equal(t, "fast", <-done)
	close(release)
	require.Equal(t, "slow", <-done)
	q.Close()
}
