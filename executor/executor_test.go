package executor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func record(log *[]string, name string) Handler[string] {
	return func(_ context.Context, _ string, _ *Contexts) error {
		*log = append(*log, name)
		return nil
	}
}

func TestExecutor_RunsHandlersInOrder(t *testing.T) {
	var log []string
	e := New[string]()
	e.AddHandler(record(&log, "first"))
	e.AddHandler(record(&log, "second"))
	e.AddPostHandler(record(&log, "post"))

	c, err := e.Execute(context.Background(), "payload")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if c.Interrupted() {
		t.Error("Execute should not be interrupted")
	}
	if want := []string{"first", "second", "post"}; !reflect.DeepEqual(log, want) {
		t.Errorf("order = %v, want %v", log, want)
	}
}

func TestExecutor_FullOrder(t *testing.T) {
	var log []string

	before := New[string]()
	before.AddHandler(record(&log, "before"))
	next := New[string]()
	next.AddHandler(record(&log, "next"))
	col := NewCollection[string]()
	col.AddHandler(record(&log, "collection"))
	col.AddPostHandler(record(&log, "collection-post"))

	e := New[string]()
	e.AddPostHandler(record(&log, "post"))
	e.AddHandler(record(&log, "main"))
	e.Before(before).Next(next).AddCollection(col)

	if _, err := e.Execute(context.Background(), "x"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"before", "main", "collection", "post", "collection-post", "next"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("order = %v, want %v", log, want)
	}
}

func TestExecutor_Interrupt(t *testing.T) {
	tests := []struct {
		name      string
		interrupt Handler[string]
	}{
		{"sentinel", func(context.Context, string, *Contexts) error { return ErrInterrupt }},
		{"contexts", func(_ context.Context, _ string, c *Contexts) error {
			c.Interrupt()
			return nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			next := New[string]()
			next.AddHandler(record(&log, "next"))

			e := New[string]()
			e.AddHandler(record(&log, "a"))
			e.AddHandler(tt.interrupt)
			e.AddHandler(record(&log, "skipped"))
			e.AddPostHandler(func(_ context.Context, _ string, c *Contexts) error {
				if !c.Interrupted() {
					t.Error("post-handler should observe interruption")
				}
				log = append(log, "post")
				return nil
			})
			e.Next(next)

			c, err := e.Execute(context.Background(), "x")
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			if !c.Interrupted() {
				t.Error("Interrupted() = false, want true")
			}
			if want := []string{"a", "post"}; !reflect.DeepEqual(log, want) {
				t.Errorf("order = %v, want %v", log, want)
			}
		})
	}
}

func TestExecutor_InterruptInBeforeStopsPipeline(t *testing.T) {
	var log []string
	guard := New[string]()
	guard.AddHandler(func(context.Context, string, *Contexts) error { return ErrInterrupt })

	e := New[string]()
	e.Before(guard)
	e.AddHandler(record(&log, "main"))

	c, err := e.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !c.Interrupted() || len(log) != 0 {
		t.Errorf("Interrupted() = %v, log = %v; want true, []", c.Interrupted(), log)
	}
}

func TestExecutor_ErrorAborts(t *testing.T) {
	var log []string
	boom := errors.New("boom")

	e := New[string]()
	e.AddHandler(func(context.Context, string, *Contexts) error { return boom })
	e.AddHandler(record(&log, "after"))
	e.AddPostHandler(record(&log, "post"))

	_, err := e.Execute(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want %v", err, boom)
	}
	if len(log) != 0 {
		t.Errorf("handlers ran after error: %v", log)
	}
}

func TestExecutor_CanceledContext(t *testing.T) {
	e := New[string]()
	e.AddHandler(func(context.Context, string, *Contexts) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Execute(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestExecutor_RemoveHandler(t *testing.T) {
	var log []string
	e := New[string]()
	id := e.AddHandler(record(&log, "removed"))
	postID := e.AddPostHandler(record(&log, "removed-post"))
	e.AddHandler(record(&log, "kept"))

	if !e.RemoveHandler(id) || !e.RemoveHandler(postID) {
		t.Error("RemoveHandler should find registered handlers")
	}
	if e.RemoveHandler(id) {
		t.Error("RemoveHandler should report false for unknown id")
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Len())
	}

	_, _ = e.Execute(context.Background(), "x")
	if want := []string{"kept"}; !reflect.DeepEqual(log, want) {
		t.Errorf("order = %v, want %v", log, want)
	}
}

func TestMapAndFilter(t *testing.T) {
	var got []int
	lengths := New[int]()
	lengths.AddHandler(func(_ context.Context, n int, _ *Contexts) error {
		got = append(got, n)
		return nil
	})

	e := New[string]()
	e.Next(Filter(Map[string](lengths, func(s string) int { return len(s) }), func(s string) bool {
		return !strings.HasPrefix(s, "skip")
	}))

	_, _ = e.Execute(context.Background(), "hello")
	_, _ = e.Execute(context.Background(), "skip-me")

	if want := []int{5}; !reflect.DeepEqual(got, want) {
		t.Errorf("mapped payloads = %v, want %v", got, want)
	}
}

func TestContexts_TypedValues(t *testing.T) {
	calls := 0
	counter := NewContextKey("counter", func() *int {
		calls++
		n := 0
		return &n
	})
	label := NewContextKey[string]("label", nil)

	e := New[string]()
	e.AddHandler(func(_ context.Context, _ string, c *Contexts) error {
		*GetContext(c, counter)++
		SetContext(c, label, "seen")
		return nil
	})
	e.AddHandler(func(_ context.Context, _ string, c *Contexts) error {
		*GetContext(c, counter)++
		return nil
	})

	c, err := e.Execute(context.Background(), "x")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := *GetContext(c, counter); got != 2 {
		t.Errorf("counter = %d, want 2", got)
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if v, ok := LookupContext(c, label); !ok || v != "seen" {
		t.Errorf("LookupContext(label) = (%q, %v), want (seen, true)", v, ok)
	}

	errKey := NewContextKey[error]("err", nil)
	if got := GetContext(c, errKey); got != nil {
		t.Errorf("GetContext on nil-interface key = %v, want nil", got)
	}
}

func TestExecutor_ConcurrentExecute(t *testing.T) {
	var mu sync.Mutex
	total := 0

	e := New[int]()
	e.AddHandler(func(_ context.Context, n int, _ *Contexts) error {
		mu.Lock()
		total += n
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Execute(context.Background(), 1)
			e.AddPostHandler(func(context.Context, int, *Contexts) error { return nil })
		}()
	}
	wg.Wait()

	if total != 50 {
		t.Errorf("total = %d, want 50", total)
	}
}
