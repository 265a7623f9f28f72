package screen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

// waitDone reads from ch until a terminal state arrives.
func waitDone[T any](t *testing.T, ch <-chan State[T]) State[T] {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			require.True(t, ok, "subscription closed early")
			if st.Done() {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for terminal state")
		}
	}
}

func TestScreen_InitialStates(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	defer s.Close()
	assert.Equal(t, KindLoading, s.State().Kind)

	idle := NewIdle[int](context.Background(), "n", "failed", Deps{})
	defer idle.Close()
	assert.Equal(t, KindIdle, idle.State().Kind)
}

func TestScreen_LoadSuccessAndFailure(t *testing.T) {
	s := New[[]string](context.Background(), "list", "Failed to load", Deps{})
	defer s.Close()

	st := s.Load(context.Background(), func(context.Context) ([]string, error) {
		return []string{"a"}, nil
	})
	assert.Equal(t, KindSuccess, st.Kind)
	assert.Equal(t, []string{"a"}, st.Data)

	st = s.Load(context.Background(), func(context.Context) ([]string, error) {
		return nil, errBoom
	})
	assert.Equal(t, KindError, st.Kind)
	assert.Equal(t, "Failed to load", st.Message)
	assert.Nil(t, st.Data)
	assert.NotContains(t, st.Message, "boom")
}

func TestScreen_LaunchNotifiesSubscribers(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	defer s.Close()

	ch := s.Subscribe()
	first := <-ch
	assert.Equal(t, KindLoading, first.Kind)

	release := make(chan struct{})
	s.Launch(func(context.Context) (int, error) {
		<-release
		return 42, nil
	})
	close(release)

	st := waitDone(t, ch)
	assert.Equal(t, KindSuccess, st.Kind)
	assert.Equal(t, 42, st.Data)
}

func TestScreen_CloseDropsLateResult(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	ch := s.Subscribe()
	<-ch

	started := make(chan struct{})
	s.Launch(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 7, nil
	})
	<-started
	s.Close()

	assert.Equal(t, KindLoading, s.State().Kind, "result after close must be dropped")
	for st := range ch {
		assert.NotEqual(t, KindSuccess, st.Kind)
	}

	s.Launch(func(context.Context) (int, error) { return 1, nil })
	assert.Equal(t, KindLoading, s.State().Kind, "launch after close is ignored")

	_, ok := <-s.Subscribe()
	assert.False(t, ok)
}

func TestScreen_LastWriteWins(t *testing.T) {
	s := New[string](context.Background(), "n", "failed", Deps{})
	defer s.Close()

	slow := make(chan struct{})
	s.Launch(func(context.Context) (string, error) {
		<-slow
		return "first", nil
	})
	s.Launch(func(context.Context) (string, error) {
		return "second", nil
	})
	require.Eventually(t, func() bool {
		return s.State().Data == "second"
	}, 2*time.Second, 5*time.Millisecond)

	// The older fetch finishes later and overwrites the newer result.
	close(slow)
	require.Eventually(t, func() bool {
		return s.State().Data == "first"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScreen_Update(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	defer s.Close()
	s.Load(context.Background(), func(context.Context) (int, error) { return 1, nil })

	s.Update(func(st State[int]) State[int] {
		st.Data++
		return st
	})
	assert.Equal(t, 2, s.State().Data)
}

func TestScreen_UpdateIsAtomicWithFetches(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	defer s.Close()
	s.Load(context.Background(), func(context.Context) (int, error) { return 1, nil })

	started := make(chan struct{})
	landed := make(chan struct{})
	go func() {
		<-started
		s.set(Success(10), nil)
		close(landed)
	}()

	s.Update(func(st State[int]) State[int] {
		close(started)
		// Give the concurrent result a chance to slip in before the edit lands.
		time.Sleep(20 * time.Millisecond)
		st.Data++
		return st
	})
	<-landed

	assert.Equal(t, 10, s.State().Data, "a result arriving during Update is applied after it")
}

func TestState_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		state State[[]int]
		want  string
	}{
		{"loading", Loading[[]int](), `{"state":"loading"}`},
		{"idle", Idle[[]int](), `{"state":"idle"}`},
		{"success", Success([]int{1, 2}), `{"state":"success","data":[1,2]}`},
		{"empty success", Success([]int{}), `{"state":"success","data":[]}`},
		{"error", Failure[[]int]("Failed"), `{"state":"error","message":"Failed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.state)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestScreen_Cause(t *testing.T) {
	s := New[int](context.Background(), "n", "failed", Deps{})
	defer s.Close()

	s.Load(context.Background(), func(context.Context) (int, error) { return 0, errBoom })
	assert.ErrorIs(t, s.Cause(), errBoom)

	s.Load(context.Background(), func(context.Context) (int, error) { return 1, nil })
	assert.NoError(t, s.Cause())
}
