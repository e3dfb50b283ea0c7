package testutil

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-rfi/rfi/core"
)

// ConstantGrid returns an nfreq × nt grid filled with v.
func ConstantGrid(nfreq, nt int, v float64) core.Grid {
	g := core.NewGrid(nfreq, nt)
	g.Fill(v)
	return g
}

// Ones returns an nfreq × nt grid of unit weights.
func Ones(nfreq, nt int) core.Grid {
	return ConstantGrid(nfreq, nt, 1)
}

// GaussianGrid returns reproducible N(mean, sigma²) samples.
func GaussianGrid(seed uint64, nfreq, nt int, mean, sigma float64) core.Grid {
	dist := distuv.Normal{Mu: mean, Sigma: sigma, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	g := core.NewGrid(nfreq, nt)
	for i := range g.Data {
		g.Data[i] = dist.Rand()
	}
	return g
}

// RampGrid returns a grid whose sample (f, t) equals f*nt + t.
func RampGrid(nfreq, nt int) core.Grid {
	g := core.NewGrid(nfreq, nt)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	return g
}

// Spike returns a copy of g with value v written at (f, t).
func Spike(g core.Grid, f, t int, v float64) core.Grid {
	out := g.Clone()
	out.Set(f, t, v)
	return out
}

// ZeroCount returns the number of exactly-zero samples in g.
func ZeroCount(g core.Grid) int {
	n := 0
	for f := 0; f < g.Nfreq; f++ {
		for _, v := range g.Row(f) {
			if v == 0 {
				n++
			}
		}
	}
	return n
}
