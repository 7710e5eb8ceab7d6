package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The fakes below mirror the conditional-write semantics of the MongoDB
// repositories under a mutex, so the services' concurrency guarantees can be
// exercised without a live database.

type fakeCompetitionRepo struct {
	mu           sync.Mutex
	competitions map[primitive.ObjectID]*models.Competition
	// beforeDeactivate runs against the stored document just before the
	// isActive swap, to interleave a concurrent admin write with it.
	beforeDeactivate func(*models.Competition)
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{competitions: make(map[primitive.ObjectID]*models.Competition)}
}

func (r *fakeCompetitionRepo) Create(_ context.Context, competition *models.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if competition.ID.IsZero() {
		competition.ID = primitive.NewObjectID()
	}
	competition.CreatedAt = time.Now()
	r.competitions[competition.ID] = competition
	return nil
}

func (r *fakeCompetitionRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	competition, ok := r.competitions[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "competition", Key: id.Hex()}
	}
	copied := *competition
	return &copied, nil
}

func (r *fakeCompetitionRepo) FindPublic(_ context.Context, activeOnly bool, page, limit int) ([]*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Competition
	for _, c := range r.competitions {
		if !c.IsPublic {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeCompetitionRepo) FindActiveEndedBefore(_ context.Context, cutoff time.Time) ([]*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Competition
	for _, c := range r.competitions {
		if c.IsActive && c.EndDate.Before(cutoff) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCompetitionRepo) IncrementParticipantCount(_ context.Context, id primitive.ObjectID, cap int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	competition, ok := r.competitions[id]
	if !ok || !competition.IsActive || competition.ParticipantCount >= cap {
		return false, nil
	}
	competition.ParticipantCount++
	return true, nil
}

func (r *fakeCompetitionRepo) DecrementParticipantCount(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if competition, ok := r.competitions[id]; ok && competition.ParticipantCount > 0 {
		competition.ParticipantCount--
	}
	return nil
}

func (r *fakeCompetitionRepo) Deactivate(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	competition, ok := r.competitions[id]
	if !ok {
		return false, nil
	}
	if r.beforeDeactivate != nil {
		r.beforeDeactivate(competition)
	}
	if !competition.IsActive {
		return false, nil
	}
	competition.IsActive = false
	return true, nil
}

func (r *fakeCompetitionRepo) SetWinners(_ context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID, override bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	competition, ok := r.competitions[id]
	if !ok {
		return &models.NotFoundError{Entity: "competition", Key: id.Hex()}
	}
	competition.WinnerUserIDs = userIDs
	competition.WinnerOverride = override
	return nil
}

func (r *fakeCompetitionRepo) MarkSettled(_ context.Context, id primitive.ObjectID, settledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if competition, ok := r.competitions[id]; ok {
		competition.SettledAt = settledAt
	}
	return nil
}

type fakeSelectionRepo struct {
	mu         sync.Mutex
	selections []*models.TeamSelection
	createErr  error
}

func newFakeSelectionRepo() *fakeSelectionRepo {
	return &fakeSelectionRepo{}
}

func (r *fakeSelectionRepo) Create(_ context.Context, selection *models.TeamSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.selections {
		if existing.CompetitionID == selection.CompetitionID && existing.UserID == selection.UserID {
			return &models.DuplicateKeyError{Key: selection.UserID.Hex(), Message: "selection already exists"}
		}
	}
	selection.ID = primitive.NewObjectID()
	selection.JoinedAt = time.Now()
	copied := *selection
	r.selections = append(r.selections, &copied)
	return nil
}

func (r *fakeSelectionRepo) get(id primitive.ObjectID) *models.TeamSelection {
	for _, s := range r.selections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *fakeSelectionRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.TeamSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.get(id); s != nil {
		copied := *s
		return &copied, nil
	}
	return nil, &models.NotFoundError{Entity: "team selection", Key: id.Hex()}
}

func (r *fakeSelectionRepo) FindByCompetitionAndUser(_ context.Context, competitionID, userID primitive.ObjectID) (*models.TeamSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.selections {
		if s.CompetitionID == competitionID && s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "team selection", Key: userID.Hex()}
}

func (r *fakeSelectionRepo) FindByCompetition(_ context.Context, competitionID primitive.ObjectID) ([]*models.TeamSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Insertion order doubles as join order.
	var out []*models.TeamSelection
	for _, s := range r.selections {
		if s.CompetitionID == competitionID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSelectionRepo) FindByFixture(_ context.Context, fixtureID string) ([]*models.TeamSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeamSelection
	for _, s := range r.selections {
		if _, ok := s.SelectsFixture(fixtureID); ok {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSelectionRepo) UpsertTeamPoint(_ context.Context, selectionID primitive.ObjectID, point models.TeamPoint, override bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	selection := r.get(selectionID)
	if selection == nil {
		return false, nil
	}
	replaced := false
	for i := range selection.TeamPoints {
		if selection.TeamPoints[i].FixtureID == point.FixtureID {
			if selection.TeamPoints[i].IsFT && !override {
				return false, nil
			}
			selection.TeamPoints[i] = point
			replaced = true
			break
		}
	}
	if !replaced {
		selection.TeamPoints = append(selection.TeamPoints, point)
	}
	total := 0
	for _, tp := range selection.TeamPoints {
		total += tp.Points
	}
	selection.TotalPoints = total
	return true, nil
}

func (r *fakeSelectionRepo) SetRank(_ context.Context, selectionID primitive.ObjectID, rank int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.get(selectionID); s != nil {
		s.Rank = rank
	}
	return nil
}

func (r *fakeSelectionRepo) UpdateProofs(_ context.Context, selectionID primitive.ObjectID, proofs []models.Proof, stepsVerified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(selectionID)
	if s == nil {
		return &models.NotFoundError{Entity: "team selection", Key: selectionID.Hex()}
	}
	s.Proofs = proofs
	s.StepsVerified = stepsVerified
	return nil
}

func (r *fakeSelectionRepo) SetDisqualified(_ context.Context, selectionID primitive.ObjectID, disqualified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.get(selectionID)
	if s == nil {
		return &models.NotFoundError{Entity: "team selection", Key: selectionID.Hex()}
	}
	s.IsDisqualified = disqualified
	return nil
}

func (r *fakeSelectionRepo) FindUnverifiedJoinedBefore(_ context.Context, cutoff time.Time) ([]*models.TeamSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeamSelection
	for _, s := range r.selections {
		if !s.StepsVerified && !s.IsDisqualified && s.JoinedAt.Before(cutoff) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[primitive.ObjectID]*models.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[primitive.ObjectID]*models.Wallet)}
}

func (r *fakeWalletRepo) balance(userID primitive.ObjectID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[userID]; ok {
		return w.Balance
	}
	return 0
}

func (r *fakeWalletRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "wallet", Key: userID.Hex()}
	}
	copied := *wallet
	return &copied, nil
}

func (r *fakeWalletRepo) Debit(_ context.Context, userID primitive.ObjectID, amount int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok || wallet.Balance < amount {
		return false, nil
	}
	wallet.Balance -= amount
	return true, nil
}

func (r *fakeWalletRepo) Credit(_ context.Context, userID primitive.ObjectID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		wallet = &models.Wallet{ID: primitive.NewObjectID(), UserID: userID}
		r.wallets[userID] = wallet
	}
	wallet.Balance += amount
	return nil
}

func (r *fakeWalletRepo) MarkFirstDeposit(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wallet, ok := r.wallets[userID]; ok {
		wallet.MadeFirstDeposit = true
	}
	return nil
}

func (r *fakeWalletRepo) UpdatePayoutDetails(_ context.Context, userID primitive.ObjectID, details models.PayoutDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		return &models.NotFoundError{Entity: "wallet", Key: userID.Hex()}
	}
	wallet.PayoutDetails = details
	return nil
}

type starKey struct {
	competitionID primitive.ObjectID
	fixtureID     string
}

type fakeStarRepo struct {
	mu           sync.Mutex
	reservations map[starKey]*models.StarReservation
}

func newFakeStarRepo() *fakeStarRepo {
	return &fakeStarRepo{reservations: make(map[starKey]*models.StarReservation)}
}

func (r *fakeStarRepo) Reserve(_ context.Context, reservation *models.StarReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := starKey{reservation.CompetitionID, reservation.FixtureID}
	if _, exists := r.reservations[key]; exists {
		return &models.DuplicateKeyError{Key: reservation.FixtureID, Message: "star fixture already reserved"}
	}
	reservation.ID = primitive.NewObjectID()
	copied := *reservation
	r.reservations[key] = &copied
	return nil
}

func (r *fakeStarRepo) Release(_ context.Context, competitionID primitive.ObjectID, fixtureID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reservations, starKey{competitionID, fixtureID})
	return nil
}

func (r *fakeStarRepo) AttachSelection(_ context.Context, competitionID primitive.ObjectID, fixtureID string, selectionID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reservation, ok := r.reservations[starKey{competitionID, fixtureID}]; ok {
		reservation.TeamSelectionID = selectionID
	}
	return nil
}

type fakeRankRepo struct {
	mu        sync.Mutex
	rows      map[primitive.ObjectID]*models.Rank
	ensureErr error
}

func newFakeRankRepo() *fakeRankRepo {
	return &fakeRankRepo{rows: make(map[primitive.ObjectID]*models.Rank)}
}

func (r *fakeRankRepo) EnsureForUser(_ context.Context, userID primitive.ObjectID, country string, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensureErr != nil {
		err := r.ensureErr
		r.ensureErr = nil
		return err
	}
	if _, ok := r.rows[userID]; !ok {
		r.rows[userID] = &models.Rank{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Country:   country,
			CreatedAt: createdAt,
		}
	}
	return nil
}

func (r *fakeRankRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Rank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "rank", Key: userID.Hex()}
	}
	copied := *row
	return &copied, nil
}

func (r *fakeRankRepo) ApplyOutcome(_ context.Context, userID primitive.ObjectID, gameType models.CompetitionType, points int, won bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return &models.NotFoundError{Entity: "rank", Key: userID.Hex()}
	}
	row.Points += points
	stats := row.GameStats(gameType)
	stats.Points += points
	if won {
		row.TotalWins++
		row.WinningStreak++
		stats.TotalWins++
		stats.WinningStreak++
	} else {
		row.WinningStreak = 0
		stats.WinningStreak = 0
	}
	return nil
}

func (r *fakeRankRepo) FindAll(_ context.Context, country string) ([]*models.Rank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Rank
	for _, row := range r.rows {
		if country != "" && row.Country != country {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRankRepo) UpdatePositions(_ context.Context, scope models.RankScope, gameType models.CompetitionType, updates []repositories.RankPositionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		row, ok := r.rows[u.UserID]
		if !ok {
			continue
		}
		switch {
		case gameType != "":
			stats := row.GameStats(gameType)
			stats.Position = u.Position
			stats.Trend = u.Trend
		case scope == models.RankScopeCountry:
			row.CountryRank = models.RankPosition{Position: u.Position, Trend: u.Trend}
		default:
			row.WorldRank = models.RankPosition{Position: u.Position, Trend: u.Trend}
		}
	}
	return nil
}

func (r *fakeRankRepo) FindPage(_ context.Context, scope models.RankScope, gameType models.CompetitionType, country string, page, limit int) ([]*models.Rank, error) {
	rows, err := r.FindAll(context.Background(), "")
	if err != nil {
		return nil, err
	}
	if scope == models.RankScopeCountry && country != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Country == country {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, wi := sortKey(rows[i], gameType)
		pj, wj := sortKey(rows[j], gameType)
		if pi != pj {
			return pi > pj
		}
		if wi != wj {
			return wi > wj
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	start := (page - 1) * limit
	if start >= len(rows) {
		return []*models.Rank{}, nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

type ledgerKey struct {
	competitionID primitive.ObjectID
	userID        primitive.ObjectID
	kind          models.SettlementEntryKind
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[ledgerKey]*models.SettlementLedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[ledgerKey]*models.SettlementLedgerEntry)}
}

func (r *fakeLedgerRepo) TryInsert(_ context.Context, entry *models.SettlementLedgerEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerKey{entry.CompetitionID, entry.UserID, entry.Kind}
	if _, exists := r.entries[key]; exists {
		return false, nil
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	copied := *entry
	r.entries[key] = &copied
	return true, nil
}

func (r *fakeLedgerRepo) Delete(_ context.Context, competitionID, userID primitive.ObjectID, kind models.SettlementEntryKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, ledgerKey{competitionID, userID, kind})
	return nil
}

func (r *fakeLedgerRepo) FindByCompetition(_ context.Context, competitionID primitive.ObjectID) ([]*models.SettlementLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SettlementLedgerEntry
	for _, entry := range r.entries {
		if entry.CompetitionID == competitionID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "user", Key: id.Hex()}
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, &models.NotFoundError{Entity: "user", Key: email}
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			copied := *user
			out = append(out, &copied)
		}
	}
	return out, nil
}
