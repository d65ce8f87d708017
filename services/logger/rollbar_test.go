package logsvc

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adminzone/backend/core"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	logger := NewRollbarLogger(zap.New(obs), core.NewTestConfig(""))

	actor := core.Actor{Username: "admin", IP: "10.0.0.5"}
	logger.Error("saving record", errors.New("boom"), map[string]interface{}{"entity": "Student"}, actor)
	logger.Info("done")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		first := entries[0]
		assert.Equal(t, zap.ErrorLevel, first.Level)
		assert.Equal(t, "saving record", first.Message)

		fields := first.ContextMap()
		assert.Contains(t, fields["error"], "boom")
		assert.Equal(t, "Student", fields["entity"])
		assert.Equal(t, "admin", fields["actor"])
		assert.Equal(t, "10.0.0.5", fields["ip"])

		assert.Equal(t, zap.InfoLevel, entries[1].Level)
		assert.Empty(t, entries[1].ContextMap())
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(zap.NewNop(), core.NewTestConfig(""))

	personOf := func(rbArgs []interface{}) *rollbar.Person {
		for _, arg := range rbArgs {
			if ctx, ok := arg.(context.Context); ok {
				p, _ := rollbar.PersonFromContext(ctx)
				return p
			}
		}
		return nil
	}

	first, _ := logger.prepare("a", []interface{}{core.Actor{Username: "admin"}, core.Actor{Username: "other"}})
	second, _ := logger.prepare("b", []interface{}{core.Actor{Username: "secretar"}})
	none, _ := logger.prepare("c", nil)

	if p := personOf(first); assert.NotNil(t, p) {
		assert.Equal(t, "admin", p.Username)
	}
	if p := personOf(second); assert.NotNil(t, p) {
		assert.Equal(t, "secretar", p.Username)
	}
	assert.Nil(t, personOf(none))
	assert.Equal(t, []interface{}{"c"}, none)
}

func TestRollbarLogger_Debug(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	logger := NewRollbarLogger(zap.New(obs), core.NewTestConfig(""))

	logger.Debug("audit: CREATE Student#1 by admin from 10.0.0.5")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
	}
}
