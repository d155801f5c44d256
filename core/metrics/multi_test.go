package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) RecordRound(ev RoundEvent) error { return m.Called(ev).Error(0) }
func (m *mockSink) RecordRun(ev RunEvent) error     { return m.Called(ev).Error(0) }

func TestMultiSink_ForwardsToAll(t *testing.T) {
	s1, s2 := &mockSink{}, &mockSink{}
	round := RoundEvent{RunID: "r", Round: 1, Moves: 2}
	run := RunEvent{RunID: "r", Moves: 2}
	for _, s := range []*mockSink{s1, s2} {
		s.On("RecordRound", round).Return(nil).Once()
		s.On("RecordRun", run).Return(nil).Once()
	}

	m := NewMultiSink(s1, s2)
	assert.NoError(t, m.RecordRound(round))
	assert.NoError(t, m.RecordRun(run))
	s1.AssertExpectations(t)
	s2.AssertExpectations(t)
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	failing, ok := &mockSink{}, &mockSink{}
	failing.On("RecordRound", RoundEvent{}).Return(boom)
	ok.On("RecordRound", RoundEvent{}).Return(nil)

	err := NewMultiSink(failing, ok).RecordRound(RoundEvent{})
	assert.ErrorIs(t, err, boom)
	ok.AssertCalled(t, "RecordRound", RoundEvent{})
}

type closingSink struct {
	NopSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSink_Close(t *testing.T) {
	a, b := &closingSink{}, &closingSink{}
	NewMultiSink(a, NopSink{}, b).Close()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
