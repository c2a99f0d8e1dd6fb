package kafka

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoBrokersFallsBackToLog(t *testing.T) {
	p := NewProducer(nil, "navigation")
	_, ok := p.(*logProducer)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}

func TestUnreachableBrokerFallsBackToLog(t *testing.T) {
	// nothing listens on port 1
	p := NewProducer([]string{"127.0.0.1:1"}, "navigation")
	_, ok := p.(*logProducer)
	assert.True(t, ok)
}

func TestLogProducerPublishes(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	p := NewLogProducer("navigation")
	require.NoError(t, p.Publish(context.Background(), "tab-1", map[string]string{"location": "/result"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "tab-1", entry.Data["key"])
	assert.Equal(t, "navigation", entry.Data["topic"])
}
