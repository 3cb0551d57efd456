package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownHooks_ExecuteInOrder(t *testing.T) {
	var order []string

	hooks := &ShutdownHooks{}
	hooks.Add("first", func() error {
		order = append(order, "first")
		return nil
	})
	hooks.AddContext("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	hooks.Execute(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestShutdownHooks_ContinueAfterFailure(t *testing.T) {
	var order []string

	hooks := &ShutdownHooks{}
	hooks.Add("failing", func() error {
		order = append(order, "failing")
		return errors.New("boom")
	})
	hooks.Add("after", func() error {
		order = append(order, "after")
		return nil
	})

	hooks.Execute(context.Background())

	assert.Equal(t, []string{"failing", "after"}, order)
}

func TestShutdownHooks_NilHookIgnored(t *testing.T) {
	hooks := &ShutdownHooks{}
	hooks.Add("nil", nil)
	hooks.AddContext("nil-ctx", nil)

	// no hooks registered, Execute is a no-op
	hooks.Execute(context.Background())
	assert.Empty(t, hooks.hooks)
}
