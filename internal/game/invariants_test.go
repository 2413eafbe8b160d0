package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/influencer-game/influencer-server-go/internal/game/catalog"
	"github.com/influencer-game/influencer-server-go/internal/game/rules"
	"github.com/influencer-game/influencer-server-go/internal/game/tokens"
)

// randomAction builds an action message for one of the legal actions. Arguments
// are random, so many of them are rejected.
func randomAction(r *rand.Rand, v *View) PlayerAction {
	legal := v.LegalActions
	a := PlayerAction{Action: legal[r.IntN(len(legal))]}
	for _, l := range legal {
		if l == rules.ActionEndTurn && r.IntN(4) == 0 {
			a.Action = l
		}
	}
	a.Index = r.IntN(6) - 1
	a.Target = r.IntN(len(v.Players)+1) - 1
	all := tokens.AllTypes()
	a.Token = all[r.IntN(len(all))]
	if v.Pending != nil {
		if g := v.Pending.Grants; len(g) > 0 && r.IntN(3) > 0 {
			a.Token = g[r.IntN(len(g))]
		}
		n := len(v.Pending.Choices)
		want := v.Pending.MinPick
		if v.Pending.MaxPick > want {
			want += r.IntN(v.Pending.MaxPick - want + 1)
		}
		if n > 0 {
			a.Indices = r.Perm(n)[:min(want, n)]
		}
		if v.Pending.Kind == rules.SubSteal && n > 0 {
			ref := v.Pending.Choices[r.IntN(n)].Ref
			a.Target, a.Index = int(ref.Player), ref.Index
		}
	}
	return a
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	setups := [][]catalog.Interest{
		{food, music},
		{food, music, gaming},
		{fashion, food, music, gaming, catalog.InterestFitness, catalog.InterestTourism},
	}
	for seed := uint64(1); seed <= 6; seed++ {
		interests := setups[int(seed)%len(setups)]
		t.Run(fmt.Sprintf("seed=%d/players=%d", seed, len(interests)), func(t *testing.T) {
			engine := NewEngine(Options{
				Logger: zaptest.NewLogger(t),
				Clock:  clockwork.NewFakeClock(),
				Rand:   rand.New(rand.NewPCG(seed, seed*7)),
			})
			cfg := MatchConfig{NetworkCards: true}
			for _, i := range interests {
				cfg.Players = append(cfg.Players, PlayerSetup{Interest: i})
			}
			_, err := engine.StartMatch(cfg)
			require.NoError(t, err)

			r := rand.New(rand.NewPCG(seed, 99))
			for step := 0; step < 1500; step++ {
				v, err := engine.View()
				require.NoError(t, err)
				if v.Phase == rules.PhaseGameOver {
					require.NotNil(t, v.Winner)
					require.Equal(t, 40, v.Players[*v.Winner].Position)
					return
				}

				before, err := engine.Checksum()
				require.NoError(t, err)
				action := randomAction(r, v)
				if err := engine.ProcessAction(action); err != nil {
					require.True(t, errors.Is(err, ErrIllegalAction), "step %d %s: %v", step, action.Action, err)
					after, cerr := engine.Checksum()
					require.NoError(t, cerr)
					require.Equal(t, before, after, "step %d: rejected %s changed the match", step, action.Action)
					continue
				}
				require.NoError(t, engine.Audit(), "step %d after %s", step, action.Action)
			}
		})
	}
}
