package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"quaver/internal/history"
	"quaver/internal/music/queue"
)

type fakeSink struct {
	mu          sync.Mutex
	connected   bool
	disconnects int
	plays       []string
	dur         func(url string) time.Duration
}

func (f *fakeSink) Connect(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeSink) Stream(url string, stop <-chan struct{}, paused func() bool) error {
	f.mu.Lock()
	f.plays = append(f.plays, url)
	d := time.Duration(0)
	if f.dur != nil {
		d = f.dur(url)
	}
	f.mu.Unlock()
	if d < 0 {
		<-stop
		return nil
	}
	select {
	case <-stop:
	case <-time.After(d):
	}
	return nil
}

func (f *fakeSink) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
	return nil
}

func (f *fakeSink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSink) playCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.plays {
		if u == url {
			n++
		}
	}
	return n
}

type fakeResolver struct {
	mu       sync.Mutex
	queries  []string
	inFlight int
	maxSeen  int
	delay    time.Duration
	fn       func(query string) (queue.Resolved, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (queue.Resolved, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if f.fn != nil {
		return f.fn(query)
	}
	return queue.Resolved{URL: "https://yt/" + query, Title: "title " + query, Duration: time.Minute}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(channelID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) countContaining(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if strings.Contains(m, sub) {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	mu    sync.Mutex
	plays []history.Play
}

func (f *fakeRecorder) Record(p history.Play) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, p)
	return nil
}

func testConfig() Config {
	return Config{
		RetryThreshold: 100 * time.Millisecond,
		MaxRetries:     2,
		IdleTimeout:    80 * time.Millisecond,
		ResolvePace:    rate.Inf,
		PendingPoll:    5 * time.Millisecond,
		ReplayPause:    5 * time.Millisecond,
	}
}

type fixture struct {
	session  *Session
	sink     *fakeSink
	resolver *fakeResolver
	notifier *fakeNotifier
	recorder *fakeRecorder
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		sink:     &fakeSink{},
		resolver: &fakeResolver{},
		notifier: &fakeNotifier{},
		recorder: &fakeRecorder{},
	}
	f.session = NewSession("g1", "Guild One", cfg, f.sink, f.resolver, f.notifier, f.recorder)
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func resolvedEntry(url string) *queue.Entry {
	return queue.NewResolvedEntry(queue.Resolved{
		URL:      url,
		Title:    "t " + url,
		Duration: 3 * time.Minute,
	}, "u1", "alice", url)
}

func TestPlayResolvedStartsImmediatelyWhenIdle(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	queued, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1")
	if err != nil {
		t.Fatalf("PlayResolved: %v", err)
	}
	if queued {
		t.Fatalf("expected immediate start, got queued")
	}
	waitFor(t, "stream start", func() bool { return f.sink.playCount("u-a") == 1 })
	if !f.sink.Connected() {
		t.Errorf("sink not connected")
	}
	if !f.session.IsPlaying() {
		t.Errorf("session not playing")
	}
	waitFor(t, "now playing notice", func() bool { return f.notifier.countContaining("Now playing") == 1 })
	waitFor(t, "history record", func() bool {
		f.recorder.mu.Lock()
		defer f.recorder.mu.Unlock()
		return len(f.recorder.plays) == 1
	})

	f.session.Stop()
}

func TestPlayResolvedQueuesWhenBusy(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("first play: %v", err)
	}
	waitFor(t, "first stream", func() bool { return f.sink.playCount("u-a") == 1 })

	queued, err := f.session.PlayResolved(resolvedEntry("u-b"), "vc1", "tc1")
	if err != nil {
		t.Fatalf("second play: %v", err)
	}
	if !queued {
		t.Fatalf("expected second track to queue")
	}
	if got := f.session.Queue().Len(); got != 1 {
		t.Errorf("queue length = %d, want 1", got)
	}
	if f.sink.playCount("u-b") != 0 {
		t.Errorf("queued track started streaming")
	}

	f.session.Stop()
}

func TestConcurrentPlaysStartExactlyOneStream(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	var wg sync.WaitGroup
	var queuedCount atomic.Int32
	for _, url := range []string{"u-a", "u-b"} {
		url := url
		wg.Add(1)
		go func() {
			defer wg.Done()
			queued, err := f.session.PlayResolved(resolvedEntry(url), "vc1", "tc1")
			if err != nil {
				t.Errorf("PlayResolved(%s): %v", url, err)
			}
			if queued {
				queuedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := queuedCount.Load(); got != 1 {
		t.Fatalf("queued %d of 2 concurrent plays, want exactly 1", got)
	}
	waitFor(t, "single stream", func() bool {
		return f.sink.playCount("u-a")+f.sink.playCount("u-b") == 1
	})
	time.Sleep(20 * time.Millisecond)
	if got := f.sink.playCount("u-a") + f.sink.playCount("u-b"); got != 1 {
		t.Fatalf("started %d streams, want 1", got)
	}
	if got := f.session.Queue().Len(); got != 1 {
		t.Errorf("queue length = %d, want 1", got)
	}

	f.session.Stop()
}

func TestEarlyEndingRetriesThenSkips(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(url string) time.Duration {
		if url == "u-bad" {
			return 0 // ends instantly, under the retry threshold
		}
		return -1
	}

	if _, err := f.session.PlayResolved(resolvedEntry("u-bad"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	f.session.Enqueue(resolvedEntry("u-good"))

	waitFor(t, "retries then advance", func() bool { return f.sink.playCount("u-good") == 1 })
	if got := f.sink.playCount("u-bad"); got != 3 {
		t.Errorf("failing track streamed %d times, want 3 (1 start + 2 retries)", got)
	}
	if got := f.notifier.countContaining("after 2 retries"); got != 1 {
		t.Errorf("failure notice count = %d, want 1", got)
	}

	f.session.Stop()
}

func TestSkipDoesNotRetry(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	f.session.Enqueue(resolvedEntry("u-b"))
	waitFor(t, "first stream", func() bool { return f.sink.playCount("u-a") == 1 })

	// Skip well inside the retry threshold; it must still not retry.
	if err := f.session.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	waitFor(t, "next track", func() bool { return f.sink.playCount("u-b") == 1 })
	if got := f.sink.playCount("u-a"); got != 1 {
		t.Errorf("skipped track streamed %d times, want 1", got)
	}
	if got := f.notifier.countContaining("retries"); got != 0 {
		t.Errorf("skip produced a failure notice")
	}

	f.session.Stop()
}

func TestSkipWithoutPlayback(t *testing.T) {
	f := newFixture(testConfig())
	if err := f.session.Skip(); !errors.Is(err, ErrNoTrackPlaying) {
		t.Fatalf("Skip on idle session = %v, want ErrNoTrackPlaying", err)
	}
}

func TestPauseAndResume(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, "stream", func() bool { return f.sink.playCount("u-a") == 1 })

	if err := f.session.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !f.session.IsPaused() {
		t.Errorf("not paused after Pause")
	}
	if err := f.session.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if f.session.IsPaused() {
		t.Errorf("still paused after Resume")
	}

	f.session.Stop()
	if err := f.session.Pause(); !errors.Is(err, ErrNoTrackPlaying) {
		t.Errorf("Pause after Stop = %v, want ErrNoTrackPlaying", err)
	}
}

func TestStopTearsEverythingDown(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	f.session.Enqueue(resolvedEntry("u-b"), resolvedEntry("u-c"))
	waitFor(t, "stream", func() bool { return f.sink.playCount("u-a") == 1 })

	f.session.Stop()

	waitFor(t, "stopped", func() bool { return !f.session.IsPlaying() })
	if !f.session.Queue().IsEmpty() {
		t.Errorf("queue not cleared")
	}
	if f.session.Queue().NowPlaying() != nil {
		t.Errorf("now playing survived Stop")
	}
	if f.sink.Connected() {
		t.Errorf("sink still connected")
	}
	// Nothing queued should start after teardown.
	time.Sleep(20 * time.Millisecond)
	if f.sink.playCount("u-b") != 0 {
		t.Errorf("queued track started after Stop")
	}
}

func TestRepeatClearsUpcomingAndRestarts(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	f.session.Enqueue(resolvedEntry("u-b"))
	waitFor(t, "stream", func() bool { return f.sink.playCount("u-a") == 1 })

	if err := f.session.Repeat(); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	waitFor(t, "restart", func() bool { return f.sink.playCount("u-a") == 2 })
	if !f.session.Queue().IsEmpty() {
		t.Errorf("upcoming entries survived Repeat")
	}
	if now := f.session.Queue().NowPlaying(); now == nil || now.URL != "u-a" {
		t.Errorf("now playing lost across Repeat")
	}

	f.session.Stop()
}

func TestRepeatWithoutTrack(t *testing.T) {
	f := newFixture(testConfig())
	if err := f.session.Repeat(); !errors.Is(err, ErrNothingToReplay) {
		t.Fatalf("Repeat on idle session = %v, want ErrNothingToReplay", err)
	}
}

func TestIdleReaperDisconnects(t *testing.T) {
	cfg := testConfig()
	cfg.RetryThreshold = 0 // instant endings count as natural here
	f := newFixture(cfg)

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, "queue ended", func() bool { return f.notifier.countContaining("Queue ended") == 1 })
	waitFor(t, "idle disconnect", func() bool { return !f.sink.Connected() })
	if got := f.notifier.countContaining("leaving the voice channel"); got != 1 {
		t.Errorf("idle notice count = %d, want 1", got)
	}
}

func TestIdleReaperCancelledByNewTrack(t *testing.T) {
	cfg := testConfig()
	cfg.RetryThreshold = 0
	cfg.IdleTimeout = 150 * time.Millisecond
	f := newFixture(cfg)
	f.sink.dur = func(url string) time.Duration {
		if url == "u-b" {
			return -1 // keeps playing
		}
		return 0
	}

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, "queue ended", func() bool { return f.notifier.countContaining("Queue ended") == 1 })

	// New playback before the timer fires must disarm the reaper.
	if _, err := f.session.PlayResolved(resolvedEntry("u-b"), "vc1", "tc1"); err != nil {
		t.Fatalf("second play: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := f.notifier.countContaining("leaving the voice channel"); got != 0 {
		t.Errorf("reaper fired despite new playback starting")
	}

	f.session.Stop()
}

func TestResolverLoopResolvesInQueueOrder(t *testing.T) {
	f := newFixture(testConfig())

	f.session.EnqueuePending([]string{"q1", "q2", "q3"}, "u1", "alice")
	waitFor(t, "all resolved", func() bool { return !f.session.Queue().HasPending() })

	f.resolver.mu.Lock()
	got := append([]string(nil), f.resolver.queries...)
	f.resolver.mu.Unlock()
	want := []string{"q1", "q2", "q3"}
	if len(got) != len(want) {
		t.Fatalf("resolver queries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("resolver queries = %v, want %v", got, want)
		}
	}

	for i, e := range f.session.Queue().Snapshot() {
		if e.Pending() {
			t.Errorf("entry %d still pending", i)
		}
		if e.Title == "" {
			t.Errorf("entry %d missing title", i)
		}
	}
}

func TestResolverLoopSingleFlight(t *testing.T) {
	f := newFixture(testConfig())
	f.resolver.delay = 10 * time.Millisecond

	f.session.EnqueuePending([]string{"q1", "q2"}, "u1", "alice")
	f.session.EnsureResolverLoop()
	f.session.EnsureResolverLoop()

	waitFor(t, "all resolved", func() bool { return !f.session.Queue().HasPending() })
	f.resolver.mu.Lock()
	maxSeen := f.resolver.maxSeen
	n := len(f.resolver.queries)
	f.resolver.mu.Unlock()
	if maxSeen > 1 {
		t.Errorf("resolver ran %d lookups concurrently, want 1", maxSeen)
	}
	if n != 2 {
		t.Errorf("resolver called %d times, want 2", n)
	}
}

func TestEnqueuePendingRestartsExitingResolverLoop(t *testing.T) {
	f := newFixture(testConfig())

	// Park the loop's wrapper after the runner has returned but before
	// the job deregisters, so the next EnqueuePending lands exactly in
	// the window where the slot looks occupied with no runner alive.
	park := make(chan struct{})
	f.session.jobs.Reporter = func(msg string) {
		if msg == "done:"+jobResolve {
			<-park
		}
	}

	f.session.EnqueuePending([]string{"q1"}, "u1", "alice")
	waitFor(t, "first key resolved", func() bool { return !f.session.Queue().HasPending() })

	f.session.EnqueuePending([]string{"q2"}, "u1", "alice")
	close(park)

	waitFor(t, "second key resolved", func() bool { return !f.session.Queue().HasPending() })
	f.resolver.mu.Lock()
	n := len(f.resolver.queries)
	last := f.resolver.queries[n-1]
	f.resolver.mu.Unlock()
	if last != "q2" {
		t.Errorf("last resolver query = %q, want %q", last, "q2")
	}
}

func TestResolverFailureMarksEntryFailed(t *testing.T) {
	f := newFixture(testConfig())
	f.resolver.fn = func(query string) (queue.Resolved, error) {
		if query == "q2" {
			return queue.Resolved{}, errors.New("no results")
		}
		return queue.Resolved{URL: "https://yt/" + query, Title: query, Duration: time.Minute}, nil
	}

	f.session.EnqueuePending([]string{"q1", "q2", "q3"}, "u1", "alice")
	waitFor(t, "all settled", func() bool { return !f.session.Queue().HasPending() })

	snap := f.session.Queue().Snapshot()
	if len(snap) != 3 {
		t.Fatalf("queue length = %d, want 3", len(snap))
	}
	if snap[1].Title != "[Failed: q2]" {
		t.Errorf("failed entry title = %q, want %q", snap[1].Title, "[Failed: q2]")
	}
	if snap[2].Pending() {
		t.Errorf("resolution stopped at the failed entry")
	}
}

func TestAdvanceWaitsForPendingHead(t *testing.T) {
	cfg := testConfig()
	cfg.RetryThreshold = 0
	f := newFixture(cfg)

	if _, err := f.session.PlayResolved(resolvedEntry("u-a"), "vc1", "tc1"); err != nil {
		t.Fatalf("play: %v", err)
	}
	q := f.session.Queue()
	q.Append(queue.NewPendingEntry("slow query", "u1", "alice"))

	waitFor(t, "first track done", func() bool { return f.sink.playCount("u-a") == 1 && !f.session.IsPlaying() })
	// The driver must sit on the pending head, not end the queue.
	time.Sleep(30 * time.Millisecond)
	if got := f.notifier.countContaining("Queue ended"); got != 0 {
		t.Fatalf("driver ended queue past a pending head")
	}

	idx, key, ok := q.FirstPending()
	if !ok {
		t.Fatalf("pending head vanished")
	}
	q.ResolveAt(idx, key, queue.Resolved{URL: "u-b", Title: "t", Duration: time.Minute})

	waitFor(t, "pending head played", func() bool { return f.sink.playCount("u-b") == 1 })
	f.session.Stop()
}

func TestNotifyWithoutChannelReachesNotifier(t *testing.T) {
	cfg := testConfig()
	cfg.RetryThreshold = 0
	f := newFixture(cfg)

	// No text channel known yet; the message must still reach the
	// notifier so it can apply its own fallback.
	f.session.Enqueue(resolvedEntry("u-a"))
	if err := f.session.StartIfIdle("vc1", ""); err != nil {
		t.Fatalf("StartIfIdle: %v", err)
	}
	waitFor(t, "queue ended notice", func() bool { return f.notifier.countContaining("Queue ended") == 1 })
}

func TestStartIfIdleKicksDriver(t *testing.T) {
	f := newFixture(testConfig())
	f.sink.dur = func(string) time.Duration { return -1 }

	f.session.Enqueue(resolvedEntry("u-a"))
	if err := f.session.StartIfIdle("vc1", "tc1"); err != nil {
		t.Fatalf("StartIfIdle: %v", err)
	}
	waitFor(t, "stream", func() bool { return f.sink.playCount("u-a") == 1 })

	// While playing it must be a no-op.
	if err := f.session.StartIfIdle("vc1", "tc1"); err != nil {
		t.Fatalf("StartIfIdle while playing: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := f.sink.playCount("u-a"); got != 1 {
		t.Errorf("StartIfIdle restarted playback, plays = %d", got)
	}

	f.session.Stop()
}

func TestRegistryOneSessionPerGuild(t *testing.T) {
	r := NewRegistry(func(guildID, guildName string) *Session {
		return NewSession(guildID, guildName, testConfig(), &fakeSink{}, &fakeResolver{}, &fakeNotifier{}, &fakeRecorder{})
	})

	a := r.GetOrCreate("g1", "one")
	b := r.GetOrCreate("g1", "one")
	if a != b {
		t.Fatalf("GetOrCreate returned distinct sessions for one guild")
	}
	c := r.GetOrCreate("g2", "two")
	if c == a {
		t.Fatalf("sessions shared across guilds")
	}

	if !r.AllIdle() {
		t.Errorf("fresh registry not idle")
	}
	a.Enqueue(resolvedEntry("u-a"))
	if r.AllIdle() {
		t.Errorf("registry idle with a queued track")
	}
}
