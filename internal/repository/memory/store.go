package memory

import (
	"roulette_backend/internal/model"
	"sync"

	"github.com/google/uuid"
)

type betRow struct {
	bet model.Bet
	seq int64
}

// Store keeps every table in process memory.
// Rows are stored by value and handed out as copies, so callers never alias stored state.
type Store struct {
	mtx sync.RWMutex

	users      map[int]model.User
	nextUserID int
	rounds     map[uuid.UUID]model.Round
	bets       map[uuid.UUID]betRow
	manualBets []model.ManualBet
	stats      map[int]model.UserStats
	seq        int64
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int]model.User),
		nextUserID: 1,
		rounds:     make(map[uuid.UUID]model.Round),
		bets:       make(map[uuid.UUID]betRow),
		stats:      make(map[int]model.UserStats),
	}
}

// snapshot is a full copy of the store contents
type snapshot struct {
	users      map[int]model.User
	nextUserID int
	rounds     map[uuid.UUID]model.Round
	bets       map[uuid.UUID]betRow
	manualBets []model.ManualBet
	stats      map[int]model.UserStats
	seq        int64
}

func (s *Store) snapshot() snapshot {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snap := snapshot{
		users:      make(map[int]model.User, len(s.users)),
		nextUserID: s.nextUserID,
		rounds:     make(map[uuid.UUID]model.Round, len(s.rounds)),
		bets:       make(map[uuid.UUID]betRow, len(s.bets)),
		manualBets: append([]model.ManualBet(nil), s.manualBets...),
		stats:      make(map[int]model.UserStats, len(s.stats)),
		seq:        s.seq,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.rounds {
		snap.rounds[k] = v
	}
	for k, v := range s.bets {
		snap.bets[k] = v
	}
	for k, v := range s.stats {
		snap.stats[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.users = snap.users
	s.nextUserID = snap.nextUserID
	s.rounds = snap.rounds
	s.bets = snap.bets
	s.manualBets = snap.manualBets
	s.stats = snap.stats
	s.seq = snap.seq
}

// nextSeq must be called with mtx held
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}
