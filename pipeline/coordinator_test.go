package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-agent/config"
	"newsletter-agent/llm/agent"
	"newsletter-agent/llm/tools"
	"newsletter-agent/pubsub"
)

const testHTML = "<!DOCTYPE html><html><body><h1>Launch</h1></body></html>"

type fakeStage struct {
	name   string
	key    string
	out    string
	err    error
	delay  time.Duration
	before func(run *Run)
	calls  atomic.Int32
}

func (s *fakeStage) Name() string      { return s.name }
func (s *fakeStage) OutputKey() string { return s.key }

func (s *fakeStage) Run(ctx context.Context, run *Run) (string, error) {
	s.calls.Add(1)
	if s.before != nil {
		s.before(run)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.out, s.err
}

type fixture struct {
	ws       *tools.Workspace
	data     *fakeStage
	trends   *fakeStage
	writer   *fakeStage
	designer *fakeStage
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.WorkDir = t.TempDir()
	ws := tools.NewWorkspace(&cfg)

	f := &fixture{
		ws:       ws,
		data:     &fakeStage{name: agent.DataCollectionAgentName, key: agent.KeyInternalInsights, out: "fast routing"},
		trends:   &fakeStage{name: agent.TrendFindingAgentName, key: agent.KeyExternalTrends, out: "AI placement"},
		writer:   &fakeStage{name: agent.ContentWritingAgentName, key: agent.KeyTextContent, out: "Subject: Launch"},
		designer: &fakeStage{name: agent.VisualDesignAgentName, key: agent.KeyFinalDesign, out: "```html\n" + testHTML + "\n```"},
	}
	f.coord = &Coordinator{
		Workspace: ws,
		Research:  Step{Name: agent.SequentialResearchName, Stages: []Stage{f.data, f.trends}},
		Writing:   f.writer,
		Design:    f.designer,
	}
	return f
}

func (f *fixture) writeContent(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(f.ws.ContentPath), 0755))
	require.NoError(t, os.WriteFile(f.ws.ContentPath, []byte(text), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCoordinatorFullRun(t *testing.T) {
	f := newFixture(t)

	var writerSaw string
	f.writer.before = func(run *Run) {
		writerSaw = run.Get(agent.KeyInternalInsights) + "|" + run.Get(agent.KeyExternalTrends)
	}

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fast routing|AI placement", writerSaw)
	assert.False(t, report.ContentExisted)
	assert.True(t, report.ContentSaved)
	assert.True(t, report.HTMLExtracted)
	assert.Equal(t, config.ModePipeline, report.Mode)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, report.Stages, 4)
	for _, s := range report.Stages {
		assert.False(t, s.Skipped, s.Name)
		assert.Empty(t, s.Err, s.Name)
	}
	assert.Equal(t, agent.VisualDesignAgentName, report.Stages[3].Name)

	assert.Equal(t, "Subject: Launch", readFile(t, f.ws.ContentPath))
	assert.Equal(t, testHTML, readFile(t, f.ws.HTMLPath))

	names := make([]string, 0, len(report.Artifacts))
	for _, a := range report.Artifacts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"newsletter.html", "newsletter_content.txt"}, names)
}

func TestCoordinatorSkipsToDesignWhenContentExists(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Existing copy")

	var designerSaw string
	f.designer.before = func(run *Run) { designerSaw = run.Get(agent.KeyTextContent) }

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.data.calls.Load())
	assert.Zero(t, f.trends.calls.Load())
	assert.Zero(t, f.writer.calls.Load())
	assert.EqualValues(t, 1, f.designer.calls.Load())
	assert.Equal(t, "Existing copy", designerSaw)

	assert.True(t, report.ContentExisted)
	assert.False(t, report.ContentSaved)
	require.Len(t, report.Stages, 4)
	assert.True(t, report.Stages[0].Skipped)
	assert.True(t, report.Stages[1].Skipped)
	assert.True(t, report.Stages[2].Skipped)
	assert.False(t, report.Stages[3].Skipped)

	assert.Equal(t, "Existing copy", readFile(t, f.ws.ContentPath))
}

func TestCoordinatorForceIgnoresGate(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Old copy")
	f.coord.Force = true

	var designerSaw string
	f.designer.before = func(run *Run) { designerSaw = run.Get(agent.KeyTextContent) }

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.writer.calls.Load())
	assert.False(t, report.ContentExisted)
	assert.True(t, report.ContentSaved)
	assert.Equal(t, "Subject: Launch", readFile(t, f.ws.ContentPath))
	assert.Equal(t, "Subject: Launch", designerSaw)
}

func TestCoordinatorForceUsesFileRewrittenByWriter(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Old copy")
	f.coord.Force = true
	f.writer.out = "Saved the copy."
	f.writer.before = func(*Run) {
		require.True(t, f.ws.WriteFile(f.ws.ContentPath, "New copy").Success)
	}

	var designerSaw string
	f.designer.before = func(run *Run) { designerSaw = run.Get(agent.KeyTextContent) }

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.ContentSaved)
	assert.Equal(t, "New copy", readFile(t, f.ws.ContentPath))
	assert.Equal(t, "New copy", designerSaw)
}

func TestCoordinatorForceFailsOnEmptyCopyDespiteOldFile(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Old copy")
	f.coord.Force = true
	f.writer.out = ""

	_, err := f.coord.Run(context.Background())
	require.ErrorIs(t, err, ErrEmptyOutput)
	assert.Zero(t, f.designer.calls.Load())
}

func TestCoordinatorKeepsFileSavedByWriter(t *testing.T) {
	f := newFixture(t)
	f.writer.out = ""
	f.writer.before = func(*Run) {
		res := f.ws.WriteFile(f.ws.ContentPath, "Saved by writer")
		require.True(t, res.Success)
	}

	var designerSaw string
	f.designer.before = func(run *Run) { designerSaw = run.Get(agent.KeyTextContent) }

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.ContentSaved)
	assert.Equal(t, "Saved by writer", designerSaw)
}

func TestCoordinatorEmptyOutput(t *testing.T) {
	f := newFixture(t)
	f.writer.out = "   "

	_, err := f.coord.Run(context.Background())
	require.ErrorIs(t, err, ErrEmptyOutput)
	assert.True(t, IsPostConditionError(err))
	assert.Zero(t, f.designer.calls.Load())
	assert.NoFileExists(t, f.ws.ContentPath)
}

func TestCoordinatorNoHTML(t *testing.T) {
	f := newFixture(t)
	f.designer.out = "I designed a lovely newsletter."

	_, err := f.coord.Run(context.Background())
	require.ErrorIs(t, err, ErrNoHTML)
	assert.NoFileExists(t, f.ws.HTMLPath)
}

func TestCoordinatorKeepsHTMLSavedByDesigner(t *testing.T) {
	f := newFixture(t)
	f.designer.out = "Saved."
	f.designer.before = func(*Run) {
		require.True(t, f.ws.WriteFile(f.ws.HTMLPath, testHTML).Success)
	}

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HTMLExtracted)
}

func TestCoordinatorReplacesHTMLFromEarlierRun(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Existing copy")
	require.True(t, f.ws.WriteFile(f.ws.HTMLPath, "<html>OLD</html>").Success)

	report, err := f.coord.RunDesign(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HTMLExtracted)
	assert.Equal(t, testHTML, readFile(t, f.ws.HTMLPath))
}

func TestCoordinatorNoHTMLDespiteEarlierFile(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Existing copy")
	require.True(t, f.ws.WriteFile(f.ws.HTMLPath, "<html>OLD</html>").Success)
	f.designer.out = "I designed a lovely newsletter."

	_, err := f.coord.RunDesign(context.Background())
	require.ErrorIs(t, err, ErrNoHTML)
	assert.Equal(t, "<html>OLD</html>", readFile(t, f.ws.HTMLPath))
}

func TestCoordinatorStageFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("quota exhausted")
	f.data.err = boom

	report, err := f.coord.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), agent.DataCollectionAgentName)

	assert.Zero(t, f.trends.calls.Load())
	assert.Zero(t, f.writer.calls.Load())
	require.Len(t, report.Stages, 1)
	assert.Equal(t, "quota exhausted", report.Stages[0].Err)
	assert.Contains(t, report.String(), "failed")
}

func TestCoordinatorParallelResearch(t *testing.T) {
	f := newFixture(t)
	f.coord.Research.Parallel = true

	var mu sync.Mutex
	running, peak := 0, 0
	track := func(*Run) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
	}
	f.data.before = track
	f.trends.before = track

	report, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, peak)
	assert.Equal(t, agent.DataCollectionAgentName, report.Stages[0].Name)
	assert.Equal(t, agent.TrendFindingAgentName, report.Stages[1].Name)
}

func TestCoordinatorParallelResearchCancelsSibling(t *testing.T) {
	f := newFixture(t)
	f.coord.Research.Parallel = true
	f.data.err = errors.New("pdf reader crashed")
	f.trends.delay = 5 * time.Second

	start := time.Now()
	_, err := f.coord.Run(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, f.writer.calls.Load())
}

func TestCoordinatorRunDesign(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Edited copy")
	f.coord.Force = true

	report, err := f.coord.RunDesign(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.writer.calls.Load())
	assert.True(t, report.ContentExisted)
}

func TestCoordinatorRunDesignWithoutContent(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.RunDesign(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.designer.calls.Load())
}

func TestCoordinatorPublishesEvents(t *testing.T) {
	f := newFixture(t)
	f.writeContent(t, "Existing copy")

	broker := NewBroker()
	defer broker.Shutdown()
	f.coord.Broker = broker

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	report, err := f.coord.Run(ctx)
	require.NoError(t, err)

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 7 {
		select {
		case ev := <-events:
			assert.Equal(t, report.RunID, ev.Payload.RunID)
			got = append(got, string(ev.Type)+":"+ev.Payload.Stage)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}

	assert.Equal(t, []string{
		string(pubsub.StartedEvent) + ":",
		string(pubsub.SkippedEvent) + ":" + agent.DataCollectionAgentName,
		string(pubsub.SkippedEvent) + ":" + agent.TrendFindingAgentName,
		string(pubsub.SkippedEvent) + ":" + agent.ContentWritingAgentName,
		string(pubsub.StartedEvent) + ":" + agent.VisualDesignAgentName,
		string(pubsub.FinishedEvent) + ":" + agent.VisualDesignAgentName,
		string(pubsub.FinishedEvent) + ":",
	}, got)
}

func TestCoordinatorWritesTranscript(t *testing.T) {
	f := newFixture(t)
	f.coord.Transcript = agent.NewTranscript()

	_, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.ws.OutputDir, TranscriptFile))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "first line", preview("  first line\nsecond line"))
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, preview(string(long)), 83)

	accents := preview(strings.Repeat("é", 100))
	assert.True(t, utf8.ValidString(accents))
	assert.Equal(t, 83, utf8.RuneCountInString(accents))
}
