package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/store"
)

func openAIPosting() []ai.Candidate {
	return []ai.Candidate{{Title: "Senior PM", Link: "https://openai.com/jobs/55"}}
}

func TestMonitor_SingleMatch(t *testing.T) {
	client := &fakeClient{
		scoutFn: func(_ context.Context, _, _, role string) ([]ai.Candidate, error) {
			assert.Equal(t, "Senior PM", role)
			return openAIPosting(), nil
		},
	}
	notifier := &recordingNotifier{}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"))
	s.notifier = notifier

	require.True(t, s.monitor.runCycle(context.Background(), make(chan struct{})))

	assert.Equal(t, Counters{TotalScans: 1, TotalMatches: 1}, s.Counters())
	alerts := s.Alerts(PartitionActive)
	require.Len(t, alerts, 1)
	assert.Equal(t, "https://openai.com/jobs/55", alerts[0].Link)
	assert.Equal(t, "OpenAI", alerts[0].CompanyName)
	assert.Equal(t, "Matches PM seniority.", alerts[0].Rationale)
	assert.Equal(t, "HIGH-PRIORITY ALERT: Senior PM", s.Logs()[0].Message)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, alerts[0].ID, notifier.alerts[0].ID)

	// second cycle rediscovers the same link
	require.True(t, s.monitor.runCycle(context.Background(), make(chan struct{})))
	assert.Equal(t, Counters{TotalScans: 2, TotalMatches: 1}, s.Counters())
	assert.Len(t, s.Alerts(PartitionActive), 1)
	assert.Len(t, notifier.alerts, 1)
}

func TestMonitor_ScoutFailureIsIsolated(t *testing.T) {
	client := &fakeClient{
		scoutFn: func(_ context.Context, org, _, _ string) ([]ai.Candidate, error) {
			if org == "OpenAI" {
				return nil, &ai.ServiceError{Op: "find candidates", Err: errors.New("timeout")}
			}
			return []ai.Candidate{{Title: "PM", Link: "https://stripe.com/jobs/9"}}, nil
		},
	}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"), entry("2", "Stripe", "stripe.com"))

	require.True(t, s.monitor.runCycle(context.Background(), make(chan struct{})))

	assert.Equal(t, []string{"OpenAI", "Stripe"}, client.scoutedOrgs())
	assert.Equal(t, Counters{TotalScans: 2, TotalMatches: 1}, s.Counters())
	for _, e := range s.Watchlist() {
		assert.Equal(t, StatusIdle, e.Status, e.Name)
		assert.NotNil(t, e.LastChecked, e.Name)
	}

	var warned bool
	for _, l := range s.Logs() {
		if l.Message == "Search index error for OpenAI." {
			warned = l.Severity == SeverityWarning
		}
	}
	assert.True(t, warned)
}

func TestMonitor_ZeroCandidatesWarns(t *testing.T) {
	s := lockedSentinel(t, &fakeClient{}, entry("1", "OpenAI", "openai.com"))

	s.monitor.runCycle(context.Background(), make(chan struct{}))

	assert.Equal(t, Counters{TotalScans: 1}, s.Counters())
	assert.Equal(t, "Zero recent postings for OpenAI found in index.", s.Logs()[0].Message)
	assert.Equal(t, SeverityWarning, s.Logs()[0].Severity)
}

func TestMonitor_RejectedAndCriticErrors(t *testing.T) {
	client := &fakeClient{
		scoutFn: func(context.Context, string, string, string) ([]ai.Candidate, error) {
			return []ai.Candidate{
				{Title: "Chef", Link: "https://openai.com/jobs/1"},
				{Title: "Senior PM", Link: "https://openai.com/jobs/2"},
				{Title: "PM", Link: "https://openai.com/jobs/3"},
			}, nil
		},
		criticFn: func(_ context.Context, c ai.Candidate) (ai.Verdict, error) {
			switch c.Title {
			case "Chef":
				return ai.Verdict{Accepted: false, Rationale: "wrong niche"}, nil
			case "Senior PM":
				return ai.Verdict{Accepted: true, Rationale: "fit"}, nil
			}
			return ai.Verdict{}, errors.New("critic down")
		},
	}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"))

	s.monitor.runCycle(context.Background(), make(chan struct{}))

	assert.Equal(t, 3, client.criticCalls)
	assert.Equal(t, Counters{TotalScans: 1, TotalMatches: 1}, s.Counters())
	assert.Equal(t, StatusIdle, s.Watchlist()[0].Status)
}

func TestMonitor_StartRequiresProfile(t *testing.T) {
	s := newTestSentinel(t, memKV(t), &fakeClient{})

	assert.False(t, s.StartMonitor())
	assert.Equal(t, MonitorStopped, s.MonitorState())
}

func TestMonitor_CooperativeStop(t *testing.T) {
	entered := make(chan string, 10)
	release := make(chan struct{})
	client := &fakeClient{
		scoutFn: func(_ context.Context, org, _, _ string) ([]ai.Candidate, error) {
			entered <- org
			if org == "OpenAI" {
				<-release
			}
			return openAIPosting(), nil
		},
	}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"), entry("2", "Anthropic", "anthropic.com"))

	require.True(t, s.StartMonitor())
	assert.Equal(t, MonitorRunning, s.MonitorState())
	assert.True(t, s.StartMonitor(), "starting twice is a no-op")

	select {
	case org := <-entered:
		require.Equal(t, "OpenAI", org)
	case <-time.After(5 * time.Second):
		t.Fatal("scan never started")
	}

	s.StopMonitor()
	assert.Equal(t, MonitorStopped, s.MonitorState())
	close(release)
	s.WaitMonitor()

	assert.Empty(t, entered, "no organization after the stop is scanned")
	assert.Equal(t, Counters{TotalScans: 1, TotalMatches: 1}, s.Counters(), "the in-flight result is kept")
	assert.Len(t, s.Alerts(PartitionActive), 1)
	assert.Equal(t, StatusIdle, s.Watchlist()[0].Status)
	for _, l := range s.Logs() {
		assert.NotContains(t, l.Message, "Full cycle completed")
	}
}

func TestMonitor_RestartWaitsForDrainingRun(t *testing.T) {
	entered := make(chan string, 10)
	release := make(chan struct{})
	client := &fakeClient{
		scoutFn: func(_ context.Context, org, _, _ string) ([]ai.Candidate, error) {
			entered <- org
			if org == "OpenAI" {
				<-release
			}
			return nil, nil
		},
	}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"))

	require.True(t, s.StartMonitor())
	require.Equal(t, "OpenAI", <-entered)
	s.StopMonitor()
	require.True(t, s.StartMonitor())

	select {
	case org := <-entered:
		t.Fatalf("second run scanned %s before the first drained", org)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case org := <-entered:
		assert.Equal(t, "OpenAI", org)
	case <-time.After(5 * time.Second):
		t.Fatal("second run never started")
	}
	s.StopMonitor()
	s.WaitMonitor()
}

func TestMonitor_FullCycleSchedulesNext(t *testing.T) {
	s := lockedSentinel(t, &fakeClient{}, entry("1", "OpenAI", "openai.com"))

	require.True(t, s.StartMonitor())
	require.Eventually(t, func() bool {
		for _, l := range s.Logs() {
			if l.Message == "Full cycle completed. Monitoring next batch in 3600s." {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, MonitorRunning, s.MonitorState(), "waiting for the next cycle")
	s.StopMonitor()
	s.WaitMonitor()
	assert.Equal(t, 1, s.Counters().TotalScans)
}

func TestMonitor_ProfileInvalidationHaltsLoop(t *testing.T) {
	client := &fakeClient{}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"), entry("2", "Stripe", "stripe.com"))
	client.scoutFn = func(_ context.Context, org, _, _ string) ([]ai.Candidate, error) {
		if org == "OpenAI" {
			s.SetSourceText("a different resume")
		}
		return nil, nil
	}

	require.True(t, s.StartMonitor())
	s.WaitMonitor()

	assert.Equal(t, MonitorStopped, s.MonitorState())
	assert.Equal(t, []string{"OpenAI"}, client.scoutedOrgs())
}

func TestMonitor_SkipsRemovedEntries(t *testing.T) {
	client := &fakeClient{}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"), entry("2", "Stripe", "stripe.com"))
	client.scoutFn = func(_ context.Context, org, _, _ string) ([]ai.Candidate, error) {
		if org == "OpenAI" {
			require.NoError(t, s.RemoveWatch("2"))
		}
		return nil, nil
	}

	s.monitor.runCycle(context.Background(), make(chan struct{}))
	assert.Equal(t, []string{"OpenAI"}, client.scoutedOrgs())
	assert.Equal(t, 1, s.Counters().TotalScans)
}

func TestMonitor_ShutdownStopsLoop(t *testing.T) {
	s := lockedSentinel(t, &fakeClient{}, entry("1", "OpenAI", "openai.com"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.loopContext() == ctx }, 5*time.Second, 5*time.Millisecond)
	require.True(t, s.StartMonitor())
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, MonitorStopped, s.MonitorState())
}

func TestMonitor_ResetDropsInFlightScan(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	client := &fakeClient{
		scoutFn: func(context.Context, string, string, string) ([]ai.Candidate, error) {
			entered <- struct{}{}
			<-release
			return openAIPosting(), nil
		},
	}
	notifier := &recordingNotifier{}
	kv := memKV(t)
	s := newTestSentinel(t, kv, client, entry("1", "OpenAI", "openai.com"))
	s.notifier = notifier
	s.SetSourceText("Senior PM resume")
	_, err := s.LockProfile(context.Background())
	require.NoError(t, err)

	require.True(t, s.StartMonitor())
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("scan never started")
	}

	require.NoError(t, s.Reset(context.Background()))
	close(release)
	s.WaitMonitor()

	assert.Equal(t, Counters{}, s.Counters())
	assert.Empty(t, s.Alerts(PartitionActive))
	assert.Empty(t, notifier.alerts)
	assert.Equal(t, StatusIdle, s.Watchlist()[0].Status)
	assert.Nil(t, s.Watchlist()[0].LastChecked)
	assert.Empty(t, s.Logs())
	_, err = kv.Get(context.Background(), DefaultStorageKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "no snapshot is written after the reset")

	// the fresh state still persists normally
	_, err = s.AddWatch("Stripe", "stripe.com")
	require.NoError(t, err)
	_, err = kv.Get(context.Background(), DefaultStorageKey)
	assert.NoError(t, err)
}

func TestMonitor_CycleMessageUsesConfiguredDelay(t *testing.T) {
	assert.Equal(t, "60s", formatDelay(time.Minute))
	assert.Equal(t, "1.5s", formatDelay(1500*time.Millisecond))
}

func TestMonitor_NotifyFailureIsLogged(t *testing.T) {
	client := &fakeClient{
		scoutFn: func(context.Context, string, string, string) ([]ai.Candidate, error) {
			return openAIPosting(), nil
		},
	}
	s := lockedSentinel(t, client, entry("1", "OpenAI", "openai.com"))
	s.notifier = &recordingNotifier{err: errors.New("broker down")}

	require.True(t, s.monitor.runCycle(context.Background(), make(chan struct{})))

	assert.Equal(t, 1, s.Counters().TotalMatches, "delivery failure keeps the alert")
	latest := s.Logs()[0]
	assert.Equal(t, AgentReporter, latest.Agent)
	assert.Equal(t, SeverityWarning, latest.Severity)
	assert.Equal(t, "Alert delivery failed for OpenAI.", latest.Message)
}
