package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// Memory is an in-process Store used for local runs and tests.
//
// Transactions are fully serialized: Begin takes a store-wide lock that is
// released on Commit or Rollback. Each transaction works on a private copy of
// the data which replaces the shared copy on Commit, so a rolled back
// transaction leaves no trace. The same CHECK and foreign key rules as the
// Postgres schema are enforced on every write.
type Memory struct {
	clock       clockwork.Clock
	lockTimeout time.Duration
	lock        chan struct{}
	state       memoryState
}

type memoryState struct {
	teams        map[int64]models.Team
	players      map[int64]models.Player
	entries      []models.AuctionEntry
	nextTeamID   int64
	nextPlayerID int64
	nextEntryID  int64
}

// NewMemory creates an empty store. A positive lockTimeout bounds how long
// Begin waits for a concurrent transaction to finish.
func NewMemory(clock clockwork.Clock, lockTimeout time.Duration) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:       clock,
		lockTimeout: lockTimeout,
		lock:        make(chan struct{}, 1),
		state: memoryState{
			teams:   make(map[int64]models.Team),
			players: make(map[int64]models.Player),
		},
	}
}

func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	wait := ctx
	if m.lockTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
	}

	select {
	case m.lock <- struct{}{}:
	case <-wait.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, wait.Err())
	}

	return &memoryTx{store: m, state: m.state.clone()}, nil
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		teams:        make(map[int64]models.Team, len(s.teams)),
		players:      make(map[int64]models.Player, len(s.players)),
		entries:      make([]models.AuctionEntry, len(s.entries)),
		nextTeamID:   s.nextTeamID,
		nextPlayerID: s.nextPlayerID,
		nextEntryID:  s.nextEntryID,
	}
	for id, t := range s.teams {
		out.teams[id] = t
	}
	for id, p := range s.players {
		out.players[id] = p
	}
	copy(out.entries, s.entries)
	return out
}

type memoryTx struct {
	store *Memory
	state memoryState
	done  bool
}

func (t *memoryTx) check() error {
	if t.done {
		return ErrTxDone
	}
	return nil
}

func (t *memoryTx) now() time.Time {
	return t.store.clock.Now().UTC()
}

func (t *memoryTx) isReversed(entryID int64) bool {
	for _, e := range t.state.entries {
		if e.ReversesID != nil && *e.ReversesID == entryID {
			return true
		}
	}
	return false
}

func (t *memoryTx) activeBids(match func(models.AuctionEntry) bool) []models.AuctionEntry {
	var out []models.AuctionEntry
	for _, e := range t.state.entries {
		if e.Kind != models.EntryKindBid || !match(e) || t.isReversed(e.ID) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[j].NewerThan(out[i]) })
	return out
}

func (t *memoryTx) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	team, ok := t.state.teams[id]
	if !ok {
		return nil, fmt.Errorf("failed to get team %d: %w", id, models.ErrNotFound)
	}
	return &team, nil
}

func (t *memoryTx) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	player, ok := t.state.players[id]
	if !ok {
		return nil, fmt.Errorf("failed to get player %d: %w", id, models.ErrNotFound)
	}
	return &player, nil
}

// The memory store holds one store-wide lock, so finds and gets are the same read.
func (t *memoryTx) FindTeam(ctx context.Context, id int64) (*models.Team, error) {
	return t.GetTeam(ctx, id)
}

func (t *memoryTx) FindPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return t.GetPlayer(ctx, id)
}

func (t *memoryTx) GetLatestAuctionEntry(ctx context.Context, playerID, teamID int64) (*models.AuctionEntry, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	bids := t.activeBids(func(e models.AuctionEntry) bool {
		return e.PlayerID == playerID && e.TeamID == teamID
	})
	if len(bids) == 0 {
		return nil, fmt.Errorf("failed to get latest auction entry: %w", models.ErrNotFound)
	}
	latest := bids[len(bids)-1]
	return &latest, nil
}

func (t *memoryTx) UpdateTeamBudget(ctx context.Context, teamID int64, budget money.Amount) error {
	if err := t.check(); err != nil {
		return err
	}
	team, ok := t.state.teams[teamID]
	if !ok {
		return fmt.Errorf("failed to update team budget: team %d: %w", teamID, models.ErrNotFound)
	}
	if budget < 0 || budget > team.InitialBudget {
		return fmt.Errorf("failed to update team budget: %w: budget %s outside [0, %s]", ErrConstraint, budget, team.InitialBudget)
	}
	team.Budget = budget
	team.UpdatedAt = t.now()
	t.state.teams[teamID] = team
	return nil
}

func (t *memoryTx) UpdatePlayerSaleState(ctx context.Context, playerID int64, sold bool, teamID *int64) error {
	if err := t.check(); err != nil {
		return err
	}
	player, ok := t.state.players[playerID]
	if !ok {
		return fmt.Errorf("failed to update player sale state: player %d: %w", playerID, models.ErrNotFound)
	}
	if sold != (teamID != nil) {
		return fmt.Errorf("failed to update player sale state: %w: is_sold must match team_id", ErrConstraint)
	}
	player.IsSold = sold
	player.TeamID = nil
	if teamID != nil {
		if _, ok := t.state.teams[*teamID]; !ok {
			return fmt.Errorf("failed to update player sale state: %w: team %d does not exist", ErrConstraint, *teamID)
		}
		id := *teamID
		player.TeamID = &id
	}
	player.UpdatedAt = t.now()
	t.state.players[playerID] = player
	return nil
}

func (t *memoryTx) appendEntry(kind models.EntryKind, playerID, teamID int64, price money.Amount, reversesID *int64) (*models.AuctionEntry, error) {
	if _, ok := t.state.players[playerID]; !ok {
		return nil, fmt.Errorf("%w: player %d does not exist", ErrConstraint, playerID)
	}
	if _, ok := t.state.teams[teamID]; !ok {
		return nil, fmt.Errorf("%w: team %d does not exist", ErrConstraint, teamID)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: negative price", ErrConstraint)
	}

	t.state.nextEntryID++
	entry := models.AuctionEntry{
		ID:        t.state.nextEntryID,
		Kind:      kind,
		PlayerID:  playerID,
		TeamID:    teamID,
		Price:     price,
		CreatedAt: t.now(),
	}
	if reversesID != nil {
		id := *reversesID
		entry.ReversesID = &id
	}
	t.state.entries = append(t.state.entries, entry)
	return &entry, nil
}

func (t *memoryTx) InsertAuctionEntry(ctx context.Context, playerID, teamID int64, price money.Amount) (*models.AuctionEntry, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	entry, err := t.appendEntry(models.EntryKindBid, playerID, teamID, price, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to insert auction entry: %w", err)
	}
	return entry, nil
}

func (t *memoryTx) ReverseAuctionEntry(ctx context.Context, playerID, teamID int64, refund money.Amount, reversesID *int64) (*models.AuctionEntry, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if reversesID != nil {
		found := false
		for _, e := range t.state.entries {
			if e.ID == *reversesID {
				found = e.Kind == models.EntryKindBid
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("failed to reverse auction entry: %w: entry %d is not a bid", ErrConstraint, *reversesID)
		}
		if t.isReversed(*reversesID) {
			return nil, fmt.Errorf("failed to reverse auction entry: %w: entry %d already reversed", ErrConstraint, *reversesID)
		}
	}
	entry, err := t.appendEntry(models.EntryKindReversal, playerID, teamID, refund, reversesID)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse auction entry: %w", err)
	}
	return entry, nil
}

func (t *memoryTx) ListTeams(ctx context.Context) ([]models.Team, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(t.state.teams))
	for _, team := range t.state.teams {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (t *memoryTx) InsertTeam(ctx context.Context, name string, budget money.Amount, ownerID *int64) (*models.Team, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if name == "" || budget < 0 {
		return nil, fmt.Errorf("failed to create team: %w", ErrConstraint)
	}
	t.state.nextTeamID++
	now := t.now()
	team := models.Team{
		ID:            t.state.nextTeamID,
		Name:          name,
		Budget:        budget,
		InitialBudget: budget,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if ownerID != nil {
		id := *ownerID
		team.OwnerID = &id
	}
	t.state.teams[team.ID] = team
	return &team, nil
}

func (t *memoryTx) DeleteTeam(ctx context.Context, id int64) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.teams[id]; !ok {
		return fmt.Errorf("failed to delete team %d: %w", id, models.ErrNotFound)
	}
	for _, p := range t.state.players {
		if p.TeamID != nil && *p.TeamID == id {
			return fmt.Errorf("failed to delete team: %w: team %d still owns players", ErrConstraint, id)
		}
	}
	if n := t.countEntries(func(e models.AuctionEntry) bool { return e.TeamID == id }); n > 0 {
		return fmt.Errorf("failed to delete team: %w: team %d has %d auction entries", ErrConstraint, id, n)
	}
	delete(t.state.teams, id)
	return nil
}

func (t *memoryTx) UpdateTeamDetails(ctx context.Context, team models.Team) (*models.Team, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	current, ok := t.state.teams[team.ID]
	if !ok {
		return nil, fmt.Errorf("failed to update team %d: %w", team.ID, models.ErrNotFound)
	}
	if team.Name == "" {
		return nil, fmt.Errorf("failed to update team: %w: empty name", ErrConstraint)
	}
	current.Name = team.Name
	current.OwnerID = nil
	if team.OwnerID != nil {
		owner := *team.OwnerID
		current.OwnerID = &owner
	}
	current.UpdatedAt = t.now()
	t.state.teams[team.ID] = current
	return &current, nil
}

func (t *memoryTx) countEntries(match func(models.AuctionEntry) bool) int {
	n := 0
	for _, e := range t.state.entries {
		if match(e) {
			n++
		}
	}
	return n
}

func (t *memoryTx) CountEntriesByTeam(ctx context.Context, teamID int64) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.countEntries(func(e models.AuctionEntry) bool { return e.TeamID == teamID }), nil
}

func (t *memoryTx) CountEntriesByPlayer(ctx context.Context, playerID int64) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.countEntries(func(e models.AuctionEntry) bool { return e.PlayerID == playerID }), nil
}

func (t *memoryTx) CountPlayersByTeam(ctx context.Context, teamID int64) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	count := 0
	for _, p := range t.state.players {
		if p.TeamID != nil && *p.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

func (t *memoryTx) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	name := strings.ToLower(filter.Name)
	players := make([]models.Player, 0, len(t.state.players))
	for _, p := range t.state.players {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.TeamID != nil && (p.TeamID == nil || *p.TeamID != *filter.TeamID) {
			continue
		}
		if filter.Sold != nil && p.IsSold != *filter.Sold {
			continue
		}
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Category.Rank() != b.Category.Rank() {
			return a.Category.Rank() < b.Category.Rank()
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return players, nil
}

func (t *memoryTx) InsertPlayer(ctx context.Context, name string, category models.Category, basePrice money.Amount) (*models.Player, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if name == "" || basePrice <= 0 {
		return nil, fmt.Errorf("failed to create player: %w", ErrConstraint)
	}
	if _, err := models.ParseCategory(string(category)); err != nil {
		return nil, fmt.Errorf("failed to create player: %w: %v", ErrConstraint, err)
	}
	t.state.nextPlayerID++
	now := t.now()
	player := models.Player{
		ID:        t.state.nextPlayerID,
		Name:      name,
		Category:  category,
		BasePrice: basePrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.state.players[player.ID] = player
	return &player, nil
}

func (t *memoryTx) UpdatePlayerDetails(ctx context.Context, p models.Player) (*models.Player, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	player, ok := t.state.players[p.ID]
	if !ok {
		return nil, fmt.Errorf("failed to update player %d: %w", p.ID, models.ErrNotFound)
	}
	if p.Name == "" || p.BasePrice <= 0 {
		return nil, fmt.Errorf("failed to update player: %w", ErrConstraint)
	}
	if _, err := models.ParseCategory(string(p.Category)); err != nil {
		return nil, fmt.Errorf("failed to update player: %w: %v", ErrConstraint, err)
	}
	player.Name = p.Name
	player.Category = p.Category
	player.BasePrice = p.BasePrice
	player.UpdatedAt = t.now()
	t.state.players[p.ID] = player
	return &player, nil
}

func (t *memoryTx) DeletePlayer(ctx context.Context, id int64) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.state.players[id]; !ok {
		return fmt.Errorf("failed to delete player %d: %w", id, models.ErrNotFound)
	}
	if n := t.countEntries(func(e models.AuctionEntry) bool { return e.PlayerID == id }); n > 0 {
		return fmt.Errorf("failed to delete player: %w: player %d has %d auction entries", ErrConstraint, id, n)
	}
	delete(t.state.players, id)
	return nil
}

func (t *memoryTx) ListActiveEntries(ctx context.Context, teamID *int64) ([]models.AuctionEntry, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.activeBids(func(e models.AuctionEntry) bool {
		return teamID == nil || e.TeamID == *teamID
	}), nil
}

func (t *memoryTx) ListRecentEntries(ctx context.Context, limit int) ([]models.AuctionRecord, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	entries := make([]models.AuctionEntry, len(t.state.entries))
	copy(entries, t.state.entries)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].NewerThan(entries[j]) })
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	records := make([]models.AuctionRecord, len(entries))
	for i, e := range entries {
		records[i] = models.AuctionRecord{
			AuctionEntry: e,
			PlayerName:   t.state.players[e.PlayerID].Name,
			TeamName:     t.state.teams[e.TeamID].Name,
		}
	}
	return records, nil
}

func (t *memoryTx) Commit() error {
	if err := t.check(); err != nil {
		return err
	}
	t.done = true
	t.store.state = t.state
	<-t.store.lock
	return nil
}

func (t *memoryTx) Rollback() error {
	if err := t.check(); err != nil {
		return err
	}
	t.done = true
	<-t.store.lock
	return nil
}
