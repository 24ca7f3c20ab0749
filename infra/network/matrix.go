package network

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ridepool/core/model"
	corenetwork "github.com/kilianp07/ridepool/core/network"
)

// MatrixOracle serves travel times from an all-pairs matrix. Location i maps
// to row i. The input need not be metric: it is closed under shortest paths
// on construction, so a detour through a third location is never faster
// than the time returned for a pair.
type MatrixOracle struct {
	times [][]time.Duration
	// next[i][j] is the location after i on the shortest path to j.
	next [][]int
}

// NewMatrixOracle builds an oracle from a square matrix of seconds.
// Negative or NaN entries mark unreachable pairs.
func NewMatrixOracle(seconds [][]float64) (*MatrixOracle, error) {
	n := len(seconds)
	times := make([][]time.Duration, n)
	next := make([][]int, n)
	for i, row := range seconds {
		if len(row) != n {
			return nil, fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), n)
		}
		times[i] = make([]time.Duration, n)
		next[i] = make([]int, n)
		for j, s := range row {
			next[i][j] = j
			if math.IsNaN(s) || s < 0 {
				times[i][j] = -1
				continue
			}
			times[i][j] = secondsToDuration(s)
		}
		times[i][i] = 0
	}
	closeShortest(times, next)
	return &MatrixOracle{times: times, next: next}, nil
}

// closeShortest runs Floyd-Warshall in place. Ties keep the existing hop so
// paths stay deterministic.
func closeShortest(times [][]time.Duration, next [][]int) {
	n := len(times)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			ik := times[i][k]
			if ik < 0 || i == k {
				continue
			}
			for j := 0; j < n; j++ {
				kj := times[k][j]
				if kj < 0 {
					continue
				}
				if d := times[i][j]; d < 0 || ik+kj < d {
					times[i][j] = ik + kj
					next[i][j] = next[i][k]
				}
			}
		}
	}
}

// Size returns the number of locations.
func (m *MatrixOracle) Size() int { return len(m.times) }

func (m *MatrixOracle) TravelTime(a, b model.Location) (time.Duration, error) {
	if !m.known(a) {
		return 0, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, a)
	}
	if !m.known(b) {
		return 0, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, b)
	}
	d := m.times[a][b]
	if d < 0 {
		return 0, fmt.Errorf("%w: %d -> %d", corenetwork.ErrUnreachable, a, b)
	}
	return d, nil
}

func (m *MatrixOracle) RouteThrough(locs []model.Location) (time.Duration, error) {
	return corenetwork.SumLegs(m, locs)
}

func (m *MatrixOracle) ShortestPath(a, b model.Location) ([]model.Location, error) {
	if _, err := m.TravelTime(a, b); err != nil {
		return nil, err
	}
	p := []model.Location{a}
	for at := int(a); at != int(b); {
		at = m.next[at][b]
		p = append(p, model.Location(at))
	}
	return p, nil
}

func (m *MatrixOracle) known(l model.Location) bool {
	return l >= 0 && int(l) < len(m.times)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
