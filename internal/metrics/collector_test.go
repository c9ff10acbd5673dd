package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, c.jobsTotal)
	assert.NotNil(t, c.jobDuration)
	assert.NotNil(t, c.workflowStepsTotal)
	assert.NotNil(t, c.stepDuration)
	assert.NotNil(t, c.llmRequestsTotal)
	assert.NotNil(t, c.llmDuration)
	assert.NotNil(t, c.reloadsTotal)
}

func TestCollector_RecordJob(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordJob("wf-1", "completed", 2*time.Second)

	assert.Greater(t, testutil.CollectAndCount(c.jobsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.jobDuration), 0)
}

func TestCollector_RecordWorkflowStep(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordWorkflowStep("wf-1", "summarizer", "success", 500*time.Millisecond)

	assert.Greater(t, testutil.CollectAndCount(c.workflowStepsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.stepDuration), 0)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordLLMRequest("openai", "gpt-4o-mini", "success", 300*time.Millisecond)

	assert.Greater(t, testutil.CollectAndCount(c.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.llmDuration), 0)
}

func TestCollector_RecordReload(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordReload("agent", "success")
	c.RecordReload("workflow", "evicted")

	assert.Equal(t, 2, testutil.CollectAndCount(c.reloadsTotal))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			c.RecordJob("wf-1", "completed", time.Millisecond)
			c.RecordWorkflowStep("wf-1", "agent-a", "success", time.Millisecond)
			c.RecordLLMRequest("openai", "gpt-4o-mini", "success", time.Millisecond)
			c.RecordReload("agent", "success")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(c.jobsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.workflowStepsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.reloadsTotal), 0)
}
