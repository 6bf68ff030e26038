package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSagaRunsStepsInOrder(t *testing.T) {
	var applied []string
	sg := newSaga(zerolog.Nop())
	for _, name := range []string{"first", "second", "third"} {
		name := name
		sg.add(name,
			func(ctx context.Context) error {
				applied = append(applied, name)
				return nil
			},
			nil)
	}
	require.NoError(t, sg.run(context.Background()))
	assert.Equal(t, []string{"first", "second", "third"}, applied)
}

func TestSagaUnwindsAppliedStepsInReverse(t *testing.T) {
	var compensated []string
	boom := errors.New("boom")

	sg := newSaga(zerolog.Nop())
	sg.add("first",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "first")
			return nil
		})
	sg.add("second",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "second")
			return nil
		})
	sg.add("third",
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			compensated = append(compensated, "third")
			return nil
		})

	err := sg.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second", "first"}, compensated,
		"only applied steps unwind, newest first")
}

func TestSagaNilCompensationSkipped(t *testing.T) {
	var compensated []string
	sg := newSaga(zerolog.Nop())
	sg.add("first",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "first")
			return nil
		})
	sg.add("second",
		func(ctx context.Context) error { return nil },
		nil)
	sg.add("third",
		func(ctx context.Context) error { return errors.New("boom") },
		nil)

	require.Error(t, sg.run(context.Background()))
	assert.Equal(t, []string{"first"}, compensated)
}

func TestSagaCompensationFailureDoesNotStopUnwind(t *testing.T) {
	var compensated []string
	sg := newSaga(zerolog.Nop())
	sg.add("first",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "first")
			return nil
		})
	sg.add("second",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			return errors.New("compensation broken")
		})
	sg.add("third",
		func(ctx context.Context) error { return errors.New("boom") },
		nil)

	require.Error(t, sg.run(context.Background()))
	assert.Equal(t, []string{"first"}, compensated,
		"unwind continues past a failed compensation")
}
