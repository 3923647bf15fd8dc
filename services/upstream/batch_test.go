package upstream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	logsvc "github.com/trezcool/portal/services/logger"
)

func TestGetBatch_PartialFailure(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5"}
	fetch := func(_ context.Context, id string) (string, error) {
		if id == "3" {
			return "", errors.New("transient upstream error")
		}
		return "class-" + id, nil
	}

	got := GetBatch(context.Background(), logsvc.Discard(), ids, fetch)
	assert.Equal(t, []string{"class-1", "class-2", "class-4", "class-5"}, got)
}

func TestGetBatch_AllFail(t *testing.T) {
	fetch := func(context.Context, string) (int, error) { return 0, errors.New("down") }
	got := GetBatch(context.Background(), logsvc.Discard(), []string{"a", "b"}, fetch)
	if got == nil || len(got) != 0 {
		t.Errorf("GetBatch() = %#v, want empty slice", got)
	}
}

func TestSettle_Parallel(t *testing.T) {
	const n = 4
	var (
		started sync.WaitGroup
		release = make(chan struct{})
	)
	started.Add(n)

	// every fetch blocks until all of them have started: a sequential loop would deadlock
	fetch := func(_ context.Context, id string) (string, error) {
		started.Done()
		<-release
		if id == "b" {
			return "", errors.New("nope")
		}
		return id, nil
	}
	go func() {
		started.Wait()
		close(release)
	}()

	done := make(chan []Result[string])
	go func() { done <- Settle(context.Background(), []string{"a", "b", "c", "d"}, fetch) }()

	select {
	case res := <-done:
		if len(res) != n {
			t.Fatalf("len(Settle()) = %d, want %d", len(res), n)
		}
		for i, id := range []string{"a", "b", "c", "d"} {
			if res[i].ID != id {
				t.Errorf("res[%d].ID = %s, want %s", i, res[i].ID, id)
			}
		}
		if res[1].Err == nil || res[0].Err != nil || res[3].Value != "d" {
			t.Errorf("unexpected results: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not run concurrently")
	}
}
