package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/random"
	"github.com/stretchr/testify/require"
)

func wrongIndex(round challenge.Round) int {
	return (round.CorrectIndex + 1) % challenge.TileCount
}

func TestEngine_PresentRound_OneUprightTile(t *testing.T) {
	engine := challenge.NewEngine(random.New(1), nil)

	for i := 0; i < 50; i++ {
		sess, err := engine.StartSession(1)
		require.NoError(t, err)
		require.Equal(t, challenge.StateAwaitingStart, sess.State)

		round, err := engine.PresentRound(sess.ID)
		require.NoError(t, err)
		require.Contains(t, challenge.Icons, round.Icon)

		upright := 0
		for idx, rot := range round.Rotations {
			if rot == 0 {
				upright++
				require.Equal(t, round.CorrectIndex, idx)
				continue
			}
			require.Contains(t, challenge.WrongRotations, rot)
		}
		require.Equal(t, 1, upright)
		require.NoError(t, engine.CancelSession(sess.ID))
	}
}

func TestEngine_PresentRound_DeterministicDraws(t *testing.T) {
	// icon, correct index, then one rotation draw per remaining tile.
	src := random.NewFixed([]int{2, 4, 0, 1, 2, 0, 1}, nil)
	engine := challenge.NewEngine(src, nil)

	sess, err := engine.StartSession(1)
	require.NoError(t, err)
	round, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)

	require.Equal(t, challenge.Icons[2], round.Icon)
	require.Equal(t, 4, round.CorrectIndex)
	require.Equal(t, [challenge.TileCount]int{90, 180, 270, 90, 0, 180}, round.Rotations)

	again, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)
	require.Equal(t, round, again)
}

func TestEngine_Judge_WrongAnswersAreFreeRetries(t *testing.T) {
	engine := challenge.NewEngine(random.New(3), nil)
	sess, err := engine.StartSession(2)
	require.NoError(t, err)

	var verdicts []challenge.Verdict
	judge := func(correct bool) {
		round, err := engine.PresentRound(sess.ID)
		require.NoError(t, err)
		idx := round.CorrectIndex
		if !correct {
			idx = wrongIndex(round)
		}
		v, err := engine.Judge(sess.ID, idx)
		require.NoError(t, err)
		verdicts = append(verdicts, v)
	}

	judge(false)
	snap, err := engine.Session(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 0, snap.RoundsPassed)

	judge(true)
	snap, err = engine.Session(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.RoundsPassed)
	require.Equal(t, challenge.StateRoundActive, snap.State)

	judge(false)
	snap, err = engine.Session(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.RoundsPassed)

	judge(true)
	require.Equal(t, []challenge.Verdict{
		challenge.VerdictFailedRound,
		challenge.VerdictPassedRound,
		challenge.VerdictFailedRound,
		challenge.VerdictSessionComplete,
	}, verdicts)

	_, err = engine.Session(sess.ID)
	require.ErrorIs(t, err, challenge.ErrSessionNotFound)
}

func TestEngine_Judge_FailurePresentsFreshRound(t *testing.T) {
	src := random.NewFixed([]int{
		0, 1, 0, 0, 0, 0, 0, // first round: upright tile 1
		5, 3, 1, 1, 1, 1, 1, // second round: upright tile 3
	}, nil)
	engine := challenge.NewEngine(src, nil)
	sess, err := engine.StartSession(1)
	require.NoError(t, err)

	_, err = engine.PresentRound(sess.ID)
	require.NoError(t, err)
	v, err := engine.Judge(sess.ID, 0)
	require.NoError(t, err)
	require.Equal(t, challenge.VerdictFailedRound, v)

	round, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)
	require.Equal(t, challenge.Icons[5], round.Icon)
	require.Equal(t, 3, round.CorrectIndex)
}

func TestEngine_Judge_Errors(t *testing.T) {
	engine := challenge.NewEngine(random.New(4), nil)
	sess, err := engine.StartSession(1)
	require.NoError(t, err)

	_, err = engine.Judge(sess.ID, 0)
	require.ErrorIs(t, err, challenge.ErrNoActiveRound)

	_, err = engine.Judge(sess.ID, challenge.TileCount)
	require.ErrorIs(t, err, challenge.ErrInvalidIndex)

	_, err = engine.Judge(sess.ID, -1)
	require.ErrorIs(t, err, challenge.ErrInvalidIndex)

	_, err = engine.Judge("missing", 0)
	require.ErrorIs(t, err, challenge.ErrSessionNotFound)

	_, err = engine.StartSession(0)
	require.ErrorIs(t, err, challenge.ErrInvalidInput)
}

func TestEngine_Refresh_KeepsProgress(t *testing.T) {
	engine := challenge.NewEngine(random.New(5), nil)
	sess, err := engine.StartSession(3)
	require.NoError(t, err)

	round, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)
	_, err = engine.Judge(sess.ID, round.CorrectIndex)
	require.NoError(t, err)

	_, err = engine.Refresh(sess.ID)
	require.NoError(t, err)
	snap, err := engine.Session(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.RoundsPassed)
}

func TestEngine_CancelSession(t *testing.T) {
	engine := challenge.NewEngine(random.New(6), nil)

	sess, err := engine.StartSession(2)
	require.NoError(t, err)
	require.NoError(t, engine.CancelSession(sess.ID))
	require.ErrorIs(t, engine.CancelSession(sess.ID), challenge.ErrSessionNotFound)

	_, err = engine.PresentRound(sess.ID)
	require.ErrorIs(t, err, challenge.ErrSessionNotFound)
}

func TestEngine_Wait(t *testing.T) {
	engine := challenge.NewEngine(random.New(8), nil)
	sess, err := engine.StartSession(1)
	require.NoError(t, err)
	round, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)

	result := make(chan challenge.State, 1)
	go func() {
		state, err := engine.Wait(context.Background(), sess.ID)
		if err == nil {
			result <- state
		}
	}()

	// Give the waiter time to look the session up before it is destroyed.
	time.Sleep(20 * time.Millisecond)

	_, err = engine.Judge(sess.ID, round.CorrectIndex)
	require.NoError(t, err)

	select {
	case state := <-result:
		require.Equal(t, challenge.StateComplete, state)
	case <-time.After(time.Second):
		t.Fatal("wait did not return")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	other, err := engine.StartSession(1)
	require.NoError(t, err)
	_, err = engine.Wait(ctx, other.ID)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngine_OnVerdict(t *testing.T) {
	engine := challenge.NewEngine(random.New(9), nil)
	var seen []challenge.Verdict
	engine.OnVerdict(func(v challenge.Verdict) { seen = append(seen, v) })

	sess, err := engine.StartSession(1)
	require.NoError(t, err)
	round, err := engine.PresentRound(sess.ID)
	require.NoError(t, err)
	_, err = engine.Judge(sess.ID, wrongIndex(round))
	require.NoError(t, err)

	require.Equal(t, []challenge.Verdict{challenge.VerdictFailedRound}, seen)
}
